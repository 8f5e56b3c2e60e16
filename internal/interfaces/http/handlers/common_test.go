package handlers

import (
	"bytes"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ClubDues/pkg/errors"
)

func TestDecodeJSON(t *testing.T) {
	var body RejectSubmissionBody
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"admin_note":"duplicate"}`))
	require.NoError(t, decodeJSON(r, &body))
	assert.Equal(t, "duplicate", body.AdminNote)

	// An empty body is allowed; validation still runs.
	var pl SetPayLinkBody
	err := decodeJSON(httptest.NewRequest("POST", "/", nil), &pl)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))

	err = decodeJSON(httptest.NewRequest("POST", "/", strings.NewReader(`{"bogus":1}`)), &body)
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
}

func TestValidateStruct_NamesFields(t *testing.T) {
	err := validateStruct(&payForm{Currency: "EURO"})
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Detail, "PayerName failed required")
	assert.Contains(t, appErr.Detail, "Amount failed required")
	assert.Contains(t, appErr.Detail, "Currency failed len")
}

func TestParsePagination(t *testing.T) {
	p := parsePagination(httptest.NewRequest("GET", "/?page=3&page_size=50", nil))
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.PageSize)

	p = parsePagination(httptest.NewRequest("GET", "/?page=-1&page_size=100000", nil))
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
}

func TestProofFromPart(t *testing.T) {
	pdf := []byte("%PDF-1.7\n1 0 obj\n")

	t.Run("sniffs generic type", func(t *testing.T) {
		p, err := proofFromPart(bytes.NewReader(pdf), "receipt", "application/octet-stream", int64(len(pdf)))
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", p.ContentType)
		got, err := io.ReadAll(p.Body)
		require.NoError(t, err)
		assert.Equal(t, pdf, got)
	})

	t.Run("keeps declared type", func(t *testing.T) {
		p, err := proofFromPart(bytes.NewReader(pdf), "receipt.jpg", "image/jpeg; charset=binary", int64(len(pdf)))
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", p.ContentType)
		assert.Equal(t, "receipt.jpg", p.FileName)
	})
}

//Personal.AI order the ending
