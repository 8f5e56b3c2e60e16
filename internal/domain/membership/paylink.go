package membership

import (
	"crypto/subtle"
	"net/url"
	"strings"

	"github.com/turtacn/ClubDues/pkg/errors"
)

// PayPath is the public route of the payment form.
const PayPath = "/membership_pay"

// CheckPayCode compares the supplied code against the membership's pay code.
func CheckPayCode(m *Membership, code string) error {
	if m.PayCode == "" || subtle.ConstantTimeCompare([]byte(m.PayCode), []byte(code)) != 1 {
		return errors.New(errors.ErrCodeInvalidPayCode, "invalid payment code").
			WithDetail("mid=" + m.ID)
	}
	return nil
}

// CheckPayLink is the full gate: the code must match and the link must be
// enabled.  A disabled link surfaces the stored reason as the message.
func CheckPayLink(m *Membership, code string) error {
	if err := CheckPayCode(m, code); err != nil {
		return err
	}
	if !m.PayLinkEnabled {
		msg := errors.DefaultMessageForCode(errors.ErrCodePayLinkDisabled)
		if m.PayLinkDisabledReason != nil && strings.TrimSpace(*m.PayLinkDisabledReason) != "" {
			msg = *m.PayLinkDisabledReason
		}
		return errors.New(errors.ErrCodePayLinkDisabled, msg).WithDetail("mid=" + m.ID)
	}
	return nil
}

// PayLinkState is the enabled flag and disabled reason pair.
type PayLinkState struct {
	Enabled bool
	Reason  *string
}

// Equal compares two states.
func (s PayLinkState) Equal(o PayLinkState) bool {
	return s.Enabled == o.Enabled && equalStringPtr(s.Reason, o.Reason)
}

// Open is the state after a rejection: enabled with no reason.
func Open() PayLinkState {
	return PayLinkState{Enabled: true}
}

// Closed disables the link with reason.
func Closed(reason string) PayLinkState {
	return PayLinkState{Enabled: false, Reason: &reason}
}

// PayLinkAfterValidation keeps the link open while installments remain
// pending and closes it with upToDate once nothing is due.
func PayLinkAfterValidation(installments []*Installment, upToDate string) PayLinkState {
	if HasPending(installments) {
		return Open()
	}
	return Closed(upToDate)
}

// CurrentPayLink returns the membership's stored state.
func CurrentPayLink(m *Membership) PayLinkState {
	return PayLinkState{Enabled: m.PayLinkEnabled, Reason: m.PayLinkDisabledReason}
}

// PayURL builds <base>/membership_pay?mid=<id>&code=<payCode>.
func PayURL(base string, m *Membership) string {
	return strings.TrimRight(base, "/") + PayPath +
		"?mid=" + url.QueryEscape(m.ID) + "&code=" + url.QueryEscape(m.PayCode)
}

//Personal.AI order the ending
