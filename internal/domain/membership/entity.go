package membership

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/turtacn/ClubDues/pkg/errors"
)

// SeasonAll is the sentinel season for memberships not tied to a year.
const SeasonAll = "all"

var seasonPattern = regexp.MustCompile(`^[0-9]{4}$`)

// ValidateSeason accepts a four digit year or SeasonAll.
func ValidateSeason(season string) error {
	if season == SeasonAll || seasonPattern.MatchString(season) {
		return nil
	}
	return errors.Newf(errors.ErrCodeValidation, "season %q must be a four-digit year or %q", season, SeasonAll)
}

// ─────────────────────────────────────────────────────────────────────────────
// Plan snapshot
// ─────────────────────────────────────────────────────────────────────────────

// InstallmentTemplate is one entry of a plan's installment template.
type InstallmentTemplate struct {
	N int `json:"n"`
	// DueMonthDay is "MM-DD"; empty means no due date.
	DueMonthDay string          `json:"due_month_day,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// PlanSnapshot is the frozen copy of plan terms taken at registration.
type PlanSnapshot struct {
	PlanID             string                `json:"plan_id"`
	Name               string                `json:"name,omitempty"`
	RequiresValidation bool                  `json:"requires_validation"`
	AllowPartial       bool                  `json:"allow_partial"`
	AllowCustomAmount  bool                  `json:"allow_custom_amount"`
	TotalAmount        decimal.NullDecimal   `json:"total_amount"`
	Currency           string                `json:"currency"`
	Installments       []InstallmentTemplate `json:"installments,omitempty"`
}

// Validate checks the snapshot is usable for registration.
func (p PlanSnapshot) Validate() error {
	if strings.TrimSpace(p.Currency) == "" {
		return errors.New(errors.ErrCodeValidation, "plan currency is required")
	}
	if p.TotalAmount.Valid && p.TotalAmount.Decimal.IsNegative() {
		return errors.New(errors.ErrCodeValidation, "plan total amount cannot be negative")
	}
	for _, t := range p.Installments {
		if t.Amount.IsNegative() {
			return errors.Newf(errors.ErrCodeValidation, "installment template %d has a negative amount", t.N)
		}
	}
	return nil
}

// Value stores the snapshot as JSON.
func (p PlanSnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Scan reads a JSON snapshot.
func (p *PlanSnapshot) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("membership: cannot scan %T into PlanSnapshot", src)
	}
	return json.Unmarshal(b, p)
}

// ─────────────────────────────────────────────────────────────────────────────
// Membership
// ─────────────────────────────────────────────────────────────────────────────

// Rollup holds the denormalised installment counters of a membership.
type Rollup struct {
	InstallmentsTotal   int     `json:"installments_total"`
	InstallmentsSettled int     `json:"installments_settled"`
	InstallmentsPending int     `json:"installments_pending"`
	NextUnpaidN         *int    `json:"next_unpaid_n"`
	NextUnpaidDueDate   *string `json:"next_unpaid_due_date"`
}

// Equal compares two rollups field by field.
func (r Rollup) Equal(o Rollup) bool {
	return r.InstallmentsTotal == o.InstallmentsTotal &&
		r.InstallmentsSettled == o.InstallmentsSettled &&
		r.InstallmentsPending == o.InstallmentsPending &&
		equalIntPtr(r.NextUnpaidN, o.NextUnpaidN) &&
		equalStringPtr(r.NextUnpaidDueDate, o.NextUnpaidDueDate)
}

// Membership is the per-associate, per-season aggregate root.
type Membership struct {
	ID                    string              `json:"id"`
	AssociateID           string              `json:"associate_id"`
	Season                string              `json:"season"`
	PlanID                string              `json:"plan_id"`
	PlanSnapshot          PlanSnapshot        `json:"plan_snapshot"`
	Status                MembershipStatus    `json:"status"`
	TotalAmount           decimal.NullDecimal `json:"total_amount"`
	Currency              string              `json:"currency"`
	PayCode               string              `json:"pay_code"`
	PayLinkEnabled        bool                `json:"pay_link_enabled"`
	PayLinkDisabledReason *string             `json:"pay_link_disabled_reason"`
	Rollup
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Installment
// ─────────────────────────────────────────────────────────────────────────────

// Installment is one scheduled due amount.
type Installment struct {
	ID           string            `json:"id"`
	MembershipID string            `json:"membership_id"`
	Season       string            `json:"season"`
	N            int               `json:"n"`
	DueDate      *string           `json:"due_date"`
	Amount       decimal.Decimal   `json:"amount"`
	Status       InstallmentStatus `json:"status"`
	// PaymentSubmissionID back-references the submission that settled it.
	PaymentSubmissionID *string   `json:"payment_submission_id"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ─────────────────────────────────────────────────────────────────────────────
// PaymentSubmission
// ─────────────────────────────────────────────────────────────────────────────

// ProofRef is the opaque object storage reference of an uploaded proof.
type ProofRef struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
}

// IsZero reports whether no proof was stored.
func (p ProofRef) IsZero() bool {
	return p.URL == "" && p.Path == "" && p.ContentType == ""
}

// PaymentSubmission is a payer's claim of having paid.
type PaymentSubmission struct {
	ID                    string              `json:"id"`
	MembershipID          string              `json:"membership_id"`
	InstallmentID         *string             `json:"installment_id"`
	PayerName             string              `json:"payer_name"`
	AmountReported        decimal.Decimal     `json:"amount_reported"`
	Currency              string              `json:"currency"`
	Method                string              `json:"method"`
	Proof                 ProofRef            `json:"proof"`
	Note                  string              `json:"note"`
	AdminNote             *string             `json:"admin_note"`
	Status                SubmissionStatus    `json:"status"`
	AppliedInstallmentIDs []string            `json:"applied_installment_ids"`
	AppliedTotal          decimal.NullDecimal `json:"applied_total"`
	DecidedAt             *time.Time          `json:"decided_at"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// EnsurePending returns ErrCodeSubmissionDecided unless the submission can
// still take an admin decision.
func (s *PaymentSubmission) EnsurePending() error {
	if s.Status != SubmissionPending {
		return errors.Newf(errors.ErrCodeSubmissionDecided, "submission is %s, not pending", s.Status).
			WithDetail("submission_id=" + s.ID)
	}
	return nil
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

//Personal.AI order the ending
