package membership

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ClubDues/pkg/errors"
)

func TestParseStatuses_RejectUnknown(t *testing.T) {
	_, err := ParseMembershipStatus("archived")
	assert.True(t, errors.IsValidation(err))

	_, err = ParseInstallmentStatus("overdue")
	assert.Error(t, err)

	_, err = ParseSubmissionStatus("approved")
	assert.Error(t, err)

	st, err := ParseSubmissionStatus("error")
	require.NoError(t, err)
	assert.Equal(t, SubmissionError, st)
}

func TestStatus_Scan(t *testing.T) {
	var ms MembershipStatus
	require.NoError(t, ms.Scan([]byte("partial")))
	assert.Equal(t, StatusPartial, ms)
	assert.Error(t, ms.Scan("Paid"))
	assert.Error(t, ms.Scan(nil))
	assert.Error(t, ms.Scan(42))

	var is InstallmentStatus
	require.NoError(t, is.Scan("validated"))
	assert.True(t, is.IsSettled())

	var ss SubmissionStatus
	require.NoError(t, ss.Scan("rejected"))
	assert.True(t, ss.IsTerminal())
}

func TestStatus_ValueRejectsUnknown(t *testing.T) {
	_, err := MembershipStatus("bogus").Value()
	assert.Error(t, err)

	v, err := InstallmentPaid.Value()
	require.NoError(t, err)
	assert.Equal(t, "paid", v)
}

func TestStatus_UnmarshalJSON(t *testing.T) {
	var payload struct {
		Status SubmissionStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"pending"}`), &payload))
	assert.Equal(t, SubmissionPending, payload.Status)
	assert.Error(t, json.Unmarshal([]byte(`{"status":"PENDING"}`), &payload))
}

func TestPlanSnapshot_ScanValue(t *testing.T) {
	snap := PlanSnapshot{
		PlanID:             "plan-1",
		RequiresValidation: true,
		AllowPartial:       true,
		TotalAmount:        decimal.NewNullDecimal(decimal.NewFromInt(3000)),
		Currency:           "EUR",
		Installments: []InstallmentTemplate{
			{N: 1, DueMonthDay: "01-15", Amount: decimal.NewFromInt(1000)},
		},
	}
	raw, err := snap.Value()
	require.NoError(t, err)

	var back PlanSnapshot
	require.NoError(t, back.Scan(raw))
	assert.Equal(t, "plan-1", back.PlanID)
	assert.True(t, back.TotalAmount.Decimal.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, "01-15", back.Installments[0].DueMonthDay)
}

func TestPlanSnapshot_Validate(t *testing.T) {
	assert.Error(t, PlanSnapshot{}.Validate())
	assert.Error(t, PlanSnapshot{Currency: "EUR", TotalAmount: decimal.NewNullDecimal(decimal.NewFromInt(-1))}.Validate())
	assert.NoError(t, PlanSnapshot{Currency: "EUR"}.Validate())
}

func TestPaymentSubmission_EnsurePending(t *testing.T) {
	s := &PaymentSubmission{ID: "s-1", Status: SubmissionPending}
	assert.NoError(t, s.EnsurePending())

	s.Status = SubmissionValidated
	err := s.EnsurePending()
	assert.True(t, errors.IsCode(err, errors.ErrCodeSubmissionDecided))
}

//Personal.AI order the ending
