package membership

import (
	"regexp"
	"sort"
	"time"

	"github.com/turtacn/ClubDues/pkg/errors"
)

var monthDayPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$`)

// BuildSchedule expands the membership's plan template into pending
// installments ordered by n.  It returns nil when the plan does not allow
// partial payment or has no template; such memberships are tracked through
// submissions alone.
//
// The template must number its entries 1..count without gaps.  Due dates are
// "<season>-<MM-DD>" except for SeasonAll and entries without a month-day,
// which get none.
func BuildSchedule(m *Membership, newID func() string, now time.Time) ([]*Installment, error) {
	snap := m.PlanSnapshot
	if !snap.AllowPartial || len(snap.Installments) == 0 {
		return nil, nil
	}

	tmpl := make([]InstallmentTemplate, len(snap.Installments))
	copy(tmpl, snap.Installments)
	sort.SliceStable(tmpl, func(i, j int) bool { return tmpl[i].N < tmpl[j].N })

	out := make([]*Installment, 0, len(tmpl))
	for i, t := range tmpl {
		if t.N != i+1 {
			return nil, errors.Newf(errors.ErrCodeValidation,
				"installment template must be numbered 1..%d without gaps, found n=%d at position %d",
				len(tmpl), t.N, i+1)
		}
		if t.Amount.IsNegative() {
			return nil, errors.Newf(errors.ErrCodeValidation, "installment %d has a negative amount", t.N)
		}

		var due *string
		if m.Season != SeasonAll && t.DueMonthDay != "" {
			if !monthDayPattern.MatchString(t.DueMonthDay) {
				return nil, errors.Newf(errors.ErrCodeValidation,
					"installment %d due date %q is not MM-DD", t.N, t.DueMonthDay)
			}
			d := m.Season + "-" + t.DueMonthDay
			due = &d
		}

		out = append(out, &Installment{
			ID:           newID(),
			MembershipID: m.ID,
			Season:       m.Season,
			N:            t.N,
			DueDate:      due,
			Amount:       t.Amount,
			Status:       InstallmentPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return out, nil
}

//Personal.AI order the ending
