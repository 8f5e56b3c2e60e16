package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/pkg/types/common"
)

// NewMembershipCmd returns the membership command group.
func NewMembershipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "membership",
		Aliases: []string{"m"},
		Short:   "Inspect and repair memberships",
	}
	cmd.AddCommand(
		newMembershipGetCmd(),
		newMembershipListCmd(),
		newMembershipReconcileCmd(),
		newMembershipRollupCmd(),
		newMembershipPayURLCmd(),
	)
	return cmd
}

func newMembershipGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get MEMBERSHIP_ID",
		Short: "Show a membership with its installments and submissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc appmembership.Service) error {
				detail, err := svc.GetMembership(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, detailView{detail})
			})
		},
	}
}

func newMembershipListCmd() *cobra.Command {
	var (
		associateID string
		season      string
		status      string
		hasPending  string
		page        int
		pageSize    int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memberships",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &appmembership.ListRequest{
				AssociateID: associateID,
				Season:      season,
				Status:      status,
				Pagination:  common.Pagination{Page: page, PageSize: pageSize},
			}
			if hasPending != "" {
				b, err := strconv.ParseBool(hasPending)
				if err != nil {
					return fmt.Errorf("--has-pending must be true or false")
				}
				req.HasPending = &b
			}
			return withService(cmd, func(ctx context.Context, svc appmembership.Service) error {
				res, err := svc.ListMemberships(ctx, req)
				if err != nil {
					return err
				}
				return PrintResult(cmd, listView(res))
			})
		},
	}
	cmd.Flags().StringVar(&associateID, "associate", "", "filter by associate id")
	cmd.Flags().StringVar(&season, "season", "", "filter by season (YYYY or all)")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending, partial, paid, validated, rejected)")
	cmd.Flags().StringVar(&hasPending, "has-pending", "", "filter by whether installments remain pending")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", common.DefaultPageSize, "page size")
	return cmd
}

func newMembershipReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile MEMBERSHIP_ID",
		Short: "Recompute status and rollup from stored rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc appmembership.Service) error {
				res, err := svc.Reconcile(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, reconcileView{res})
			})
		},
	}
}

func newMembershipRollupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollup MEMBERSHIP_ID",
		Short: "Recompute the installment rollup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc appmembership.Service) error {
				res, err := svc.RecomputeRollup(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, rollupView{res})
			})
		},
	}
}

func newMembershipPayURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay-url MEMBERSHIP_ID",
		Short: "Print the payer link of a membership",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc appmembership.Service) error {
				url, err := svc.PayURL(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			})
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Views
// ─────────────────────────────────────────────────────────────────────────────

type detailView struct {
	*appmembership.MembershipDetail
}

func (v detailView) TableHeaders() []string {
	return []string{"N", "DUE", "AMOUNT", "STATUS", "SUBMISSION"}
}

func (v detailView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Installments))
	for _, inst := range v.Installments {
		rows = append(rows, []string{
			strconv.Itoa(inst.N),
			deref(inst.DueDate, "-"),
			inst.Amount.StringFixed(2),
			string(inst.Status),
			deref(inst.PaymentSubmissionID, "-"),
		})
	}
	return rows
}

func (v detailView) String() string {
	m := v.Membership
	var sb strings.Builder
	fmt.Fprintf(&sb, "Membership %s (%s, season %s, plan %s)\n", m.ID, m.AssociateID, m.Season, m.PlanID)
	fmt.Fprintf(&sb, "Status:   %s\n", m.Status)
	if m.TotalAmount.Valid {
		fmt.Fprintf(&sb, "Total:    %s %s\n", m.TotalAmount.Decimal.StringFixed(2), m.Currency)
	}
	fmt.Fprintf(&sb, "Settled:  %d/%d\n", m.InstallmentsSettled, m.InstallmentsTotal)
	if m.PayLinkEnabled {
		fmt.Fprintf(&sb, "Pay link: enabled\n")
	} else {
		fmt.Fprintf(&sb, "Pay link: disabled (%s)\n", deref(m.PayLinkDisabledReason, "no reason"))
	}
	if v.PayURL != "" {
		fmt.Fprintf(&sb, "Pay URL:  %s\n", v.PayURL)
	}
	sb.WriteString("\n")
	sb.WriteString(FormatTable(v.TableHeaders(), v.TableRows()))

	if len(v.Submissions) > 0 {
		sb.WriteString("\n")
		rows := make([][]string, 0, len(v.Submissions))
		for _, s := range v.Submissions {
			rows = append(rows, []string{s.ID, s.PayerName, s.AmountReported.StringFixed(2), string(s.Status), deref(s.AdminNote, "")})
		}
		sb.WriteString(FormatTable([]string{"SUBMISSION", "PAYER", "AMOUNT", "STATUS", "NOTE"}, rows))
	}
	return strings.TrimRight(sb.String(), "\n")
}

type listView common.PageResponse[*domain.Membership]

func (v listView) TableHeaders() []string {
	return []string{"ID", "ASSOCIATE", "SEASON", "STATUS", "SETTLED", "NEXT DUE"}
}

func (v listView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Items))
	for _, m := range v.Items {
		rows = append(rows, []string{
			m.ID,
			m.AssociateID,
			m.Season,
			string(m.Status),
			fmt.Sprintf("%d/%d", m.InstallmentsSettled, m.InstallmentsTotal),
			deref(m.NextUnpaidDueDate, "-"),
		})
	}
	return rows
}

type reconcileView struct {
	*appmembership.ReconcileResult
}

func (v reconcileView) String() string {
	change := "unchanged"
	if v.StatusChanged {
		change = fmt.Sprintf("changed from %s", v.PreviousStatus)
	}
	return fmt.Sprintf("%s: status %s (%s), rollup %s", v.MembershipID, v.Status, change, changedWord(v.RollupChanged))
}

type rollupView struct {
	*appmembership.RollupResult
}

func (v rollupView) String() string {
	r := v.Rollup
	return fmt.Sprintf("%s: %d total, %d settled, %d pending, next due %s (rollup %s)",
		v.MembershipID, r.InstallmentsTotal, r.InstallmentsSettled, r.InstallmentsPending,
		deref(r.NextUnpaidDueDate, "-"), changedWord(v.Changed))
}

func changedWord(changed bool) string {
	if changed {
		return "updated"
	}
	return "unchanged"
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

//Personal.AI order the ending
