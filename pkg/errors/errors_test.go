package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ClubDues/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New / Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal", errors.CodeInternal, "unexpected failure"},
		{"membership not found", errors.ErrCodeMembershipNotFound, "membership m-1 not found"},
		{"validation", errors.CodeValidation, "amount must be positive"},
		{"pay link disabled", errors.ErrCodePayLinkDisabled, "up to date"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestAppError_ErrorFormat(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeInvalidPayCode, "invalid payment code")
	assert.Equal(t, "[MEM_002] invalid payment code", ae.Error())

	withDetail := ae.WithDetail("mid=m-1")
	assert.Equal(t, "[MEM_002] invalid payment code: mid=m-1", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")
}

func TestWrap_NilReturnsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "ignored"))
}

func TestWrap_PreservesCodeWhenUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeSubmissionDecided, "submission s-1 already decided")
	outer := errors.Wrap(inner, errors.CodeUnknown, "validate submission")

	assert.Equal(t, errors.ErrCodeSubmissionDecided, outer.Code)
	assert.True(t, stderrors.Is(outer, inner))
}

func TestWrap_OverridesCode(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("connection reset")
	ae := errors.Wrap(cause, errors.ErrCodeDatabaseError, "failed to load membership")

	assert.Equal(t, errors.ErrCodeDatabaseError, ae.Code)
	assert.Equal(t, cause, stderrors.Unwrap(ae))
}

// ─────────────────────────────────────────────────────────────────────────────
// Inspection helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_WalksChain(t *testing.T) {
	t.Parallel()

	root := errors.New(errors.ErrCodePermissionDenied, "store refused write")
	mid := errors.Wrap(root, errors.ErrCodeDatabaseError, "update pay link")
	top := fmt.Errorf("submit payment: %w", mid)

	assert.True(t, errors.IsCode(top, errors.ErrCodeDatabaseError))
	assert.True(t, errors.IsCode(top, errors.ErrCodePermissionDenied))
	assert.True(t, errors.IsPermissionDenied(top))
	assert.False(t, errors.IsCode(top, errors.ErrCodeValidation))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeValidation))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(fmt.Errorf("plain")))
	assert.Equal(t, errors.ErrCodeProofUpload,
		errors.GetCode(fmt.Errorf("wrapped: %w", errors.New(errors.ErrCodeProofUpload, "x"))))
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.Kind(""), errors.KindOf(nil))
	assert.Equal(t, errors.KindInternal, errors.KindOf(fmt.Errorf("plain")))
	assert.Equal(t, errors.KindNotFound, errors.KindOf(errors.New(errors.ErrCodeMembershipNotFound, "x")))
	assert.Equal(t, errors.KindUpload, errors.KindOf(errors.New(errors.ErrCodeProofUpload, "x")))
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.NotFound("x")))
	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeMembershipNotFound, "x")))
	assert.True(t, errors.IsValidation(errors.InvalidParam("x")))
	assert.True(t, errors.IsConflict(errors.Conflict("x")))
	assert.True(t, errors.IsConflict(errors.New(errors.ErrCodeInstallmentApplied, "x")))
	assert.False(t, errors.IsNotFound(errors.Internal("x")))
}

func TestWithCause_Nil(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithCause(fmt.Errorf("x")))
	assert.Nil(t, ae.WithDetail("x"))
}

//Personal.AI order the ending
