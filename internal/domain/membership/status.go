package membership

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/turtacn/ClubDues/pkg/errors"
)

// Status enums are closed sets.  Every read boundary (SQL Scan, JSON decode,
// query parameters) goes through the Parse functions so unknown values are
// rejected instead of silently defaulting.

// ─────────────────────────────────────────────────────────────────────────────
// MembershipStatus
// ─────────────────────────────────────────────────────────────────────────────

// MembershipStatus is always derived by ComputeStatus; it is never authored.
type MembershipStatus string

const (
	StatusPending   MembershipStatus = "pending"
	StatusPartial   MembershipStatus = "partial"
	StatusPaid      MembershipStatus = "paid"
	StatusValidated MembershipStatus = "validated"
	StatusRejected  MembershipStatus = "rejected"
)

// ParseMembershipStatus validates s.
func ParseMembershipStatus(s string) (MembershipStatus, error) {
	switch st := MembershipStatus(s); st {
	case StatusPending, StatusPartial, StatusPaid, StatusValidated, StatusRejected:
		return st, nil
	}
	return "", errors.Newf(errors.ErrCodeValidation, "unknown membership status %q", s)
}

func (s MembershipStatus) String() string { return string(s) }

// Scan implements sql.Scanner.
func (s *MembershipStatus) Scan(src interface{}) error {
	raw, err := scanString(src)
	if err != nil {
		return err
	}
	v, err := ParseMembershipStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Value implements driver.Valuer.
func (s MembershipStatus) Value() (driver.Value, error) {
	if _, err := ParseMembershipStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

// UnmarshalJSON rejects unknown statuses.
func (s *MembershipStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParseMembershipStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// InstallmentStatus
// ─────────────────────────────────────────────────────────────────────────────

// InstallmentStatus tracks one scheduled due.
type InstallmentStatus string

const (
	InstallmentPending   InstallmentStatus = "pending"
	InstallmentPaid      InstallmentStatus = "paid"
	InstallmentValidated InstallmentStatus = "validated"
)

// ParseInstallmentStatus validates s.
func ParseInstallmentStatus(s string) (InstallmentStatus, error) {
	switch st := InstallmentStatus(s); st {
	case InstallmentPending, InstallmentPaid, InstallmentValidated:
		return st, nil
	}
	return "", errors.Newf(errors.ErrCodeValidation, "unknown installment status %q", s)
}

func (s InstallmentStatus) String() string { return string(s) }

// IsSettled reports paid or validated.
func (s InstallmentStatus) IsSettled() bool {
	return s == InstallmentPaid || s == InstallmentValidated
}

func (s *InstallmentStatus) Scan(src interface{}) error {
	raw, err := scanString(src)
	if err != nil {
		return err
	}
	v, err := ParseInstallmentStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s InstallmentStatus) Value() (driver.Value, error) {
	if _, err := ParseInstallmentStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

func (s *InstallmentStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParseInstallmentStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SubmissionStatus
// ─────────────────────────────────────────────────────────────────────────────

// SubmissionStatus tracks a payer's claim.  validated and rejected are
// terminal.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionValidated SubmissionStatus = "validated"
	SubmissionRejected  SubmissionStatus = "rejected"
	SubmissionError     SubmissionStatus = "error"
)

// ParseSubmissionStatus validates s.
func ParseSubmissionStatus(s string) (SubmissionStatus, error) {
	switch st := SubmissionStatus(s); st {
	case SubmissionPending, SubmissionValidated, SubmissionRejected, SubmissionError:
		return st, nil
	}
	return "", errors.Newf(errors.ErrCodeValidation, "unknown submission status %q", s)
}

func (s SubmissionStatus) String() string { return string(s) }

// IsTerminal reports validated or rejected.
func (s SubmissionStatus) IsTerminal() bool {
	return s == SubmissionValidated || s == SubmissionRejected
}

func (s *SubmissionStatus) Scan(src interface{}) error {
	raw, err := scanString(src)
	if err != nil {
		return err
	}
	v, err := ParseSubmissionStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s SubmissionStatus) Value() (driver.Value, error) {
	if _, err := ParseSubmissionStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

func (s *SubmissionStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParseSubmissionStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func scanString(src interface{}) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", errors.New(errors.ErrCodeValidation, "status column is NULL")
	default:
		return "", fmt.Errorf("membership: cannot scan %T into status", src)
	}
}

//Personal.AI order the ending
