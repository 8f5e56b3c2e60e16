package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	"github.com/turtacn/ClubDues/pkg/errors"
)

// NewSuggestCmd proposes installments for a submission or for an amount.
func NewSuggestCmd() *cobra.Command {
	var (
		submissionID string
		membershipID string
		amount       string
	)
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Propose the installments a payment covers",
		Example: `  clubdues suggest --submission 3f2c...
  clubdues suggest --membership 91ab... --amount 150.00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case submissionID != "" && (membershipID != "" || amount != ""):
				return errors.InvalidParam("use either --submission or --membership with --amount")
			case submissionID == "" && (membershipID == "" || amount == ""):
				return errors.InvalidParam("--membership and --amount are required without --submission")
			}
			return withService(cmd, func(ctx context.Context, svc appmembership.Service) error {
				var (
					s   *appmembership.Suggestion
					err error
				)
				if submissionID != "" {
					s, err = svc.SuggestForSubmission(ctx, submissionID)
				} else {
					s, err = svc.SuggestForAmount(ctx, membershipID, amount)
				}
				if err != nil {
					return err
				}
				return PrintResult(cmd, suggestionView{s})
			})
		},
	}
	cmd.Flags().StringVar(&submissionID, "submission", "", "payment submission id")
	cmd.Flags().StringVar(&membershipID, "membership", "", "membership id")
	cmd.Flags().StringVar(&amount, "amount", "", "reported amount, e.g. 150.00")
	return cmd
}

// NewSweepCmd reconciles every membership once.
func NewSweepCmd() *cobra.Command {
	var req appmembership.SweepRequest
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile status and rollup of every membership",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.BatchSize < 0 || req.Limit < 0 {
				return errors.InvalidParam("--batch-size and --limit must not be negative")
			}
			return withService(cmd, func(ctx context.Context, svc appmembership.Service) error {
				report, err := svc.Sweep(ctx, &req)
				if err != nil {
					return err
				}
				return PrintResult(cmd, sweepView{report})
			})
		},
	}
	cmd.Flags().IntVar(&req.BatchSize, "batch-size", 0, "memberships loaded per page (default from config)")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "stop after this many memberships (0 = all)")
	return cmd
}

type suggestionView struct {
	*appmembership.Suggestion
}

func (v suggestionView) String() string {
	if len(v.InstallmentIDs) == 0 {
		return fmt.Sprintf("%s: no pending installment fits %s", v.MembershipID, v.ReportedAmount.StringFixed(2))
	}
	match := "partial match"
	if v.ExactMatch {
		match = "exact match"
	}
	return fmt.Sprintf("%s: %s of %s (%s)\n  %s",
		v.MembershipID, v.SuggestedTotal.StringFixed(2), v.ReportedAmount.StringFixed(2), match,
		strings.Join(v.InstallmentIDs, "\n  "))
}

type sweepView struct {
	*appmembership.SweepReport
}

func (v sweepView) TableHeaders() []string {
	return []string{"SCANNED", "STATUS CHANGED", "ROLLUP CHANGED", "FAILED"}
}

func (v sweepView) TableRows() [][]string {
	return [][]string{{
		fmt.Sprint(v.Scanned), fmt.Sprint(v.StatusChanged), fmt.Sprint(v.RollupChanged), fmt.Sprint(v.Failed),
	}}
}

func (v sweepView) String() string {
	s := fmt.Sprintf("scanned %d, status changed %d, rollup changed %d, failed %d",
		v.Scanned, v.StatusChanged, v.RollupChanged, v.Failed)
	for _, e := range v.Errors {
		s += "\n  " + e
	}
	return s
}

//Personal.AI order the ending
