package handlers

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/internal/interfaces/http/response"
	"github.com/turtacn/ClubDues/pkg/errors"
)

const (
	multipartMemory = 1 << 20
	sniffLen        = 512
)

// PayHandler serves the public pay link.  Access is controlled by the pay
// code in the query string, not by admin credentials.
type PayHandler struct {
	svc           appmembership.Service
	maxProofBytes int64
	logger        logging.Logger
}

// NewPayHandler creates a PayHandler.  maxProofBytes bounds the request body.
func NewPayHandler(svc appmembership.Service, maxProofBytes int64, logger logging.Logger) *PayHandler {
	return &PayHandler{svc: svc, maxProofBytes: maxProofBytes, logger: logger.Named("pay")}
}

type payForm struct {
	PayerName     string `validate:"required,max=200"`
	Amount        string `validate:"required"`
	Currency      string `validate:"omitempty,len=3,alpha"`
	Method        string `validate:"max=64"`
	InstallmentID string `validate:"max=64"`
	Note          string `validate:"max=2000"`
}

// Open handles GET /membership_pay?mid=&code=.
func (h *PayHandler) Open(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.svc.OpenPayLink(r.Context(), q.Get("mid"), q.Get("code"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Submit handles POST /membership_pay?mid=&code= with a multipart body.
func (h *PayHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.maxProofBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxProofBytes+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeAppError(w, errors.InvalidParam("invalid multipart body").WithDetail(err.Error()))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	form := payForm{
		PayerName:     strings.TrimSpace(r.FormValue("payer_name")),
		Amount:        strings.TrimSpace(r.FormValue("amount")),
		Currency:      strings.TrimSpace(r.FormValue("currency")),
		Method:        strings.TrimSpace(r.FormValue("method")),
		InstallmentID: strings.TrimSpace(r.FormValue("installment_id")),
		Note:          r.FormValue("note"),
	}
	if err := validateStruct(&form); err != nil {
		writeAppError(w, err)
		return
	}
	amount, err := decimal.NewFromString(form.Amount)
	if err != nil {
		writeAppError(w, errors.InvalidParam("amount is not a number"))
		return
	}

	q := r.URL.Query()
	req := &appmembership.SubmitPaymentRequest{
		MembershipID:   q.Get("mid"),
		Code:           q.Get("code"),
		PayerName:      form.PayerName,
		AmountReported: amount,
		Currency:       form.Currency,
		Method:         form.Method,
		Note:           form.Note,
	}
	if form.InstallmentID != "" {
		req.InstallmentID = &form.InstallmentID
	}

	file, header, err := r.FormFile("proof")
	switch {
	case err == nil:
		defer file.Close()
		proof, perr := proofFromPart(file, header.Filename, header.Header.Get("Content-Type"), header.Size)
		if perr != nil {
			writeAppError(w, perr)
			return
		}
		req.Proof = proof
	case err != http.ErrMissingFile:
		writeAppError(w, errors.InvalidParam("invalid proof file").WithDetail(err.Error()))
		return
	}

	res, err := h.svc.SubmitPayment(r.Context(), req)
	if err != nil {
		h.logger.Warn("payment submission failed", logging.MembershipID(req.MembershipID), logging.Err(err))
		writeAppError(w, err)
		return
	}
	response.Degraded(w, res.Outcome.Degraded(), res)
}

// proofFromPart resolves the content type of an uploaded part.  A missing or
// generic type is sniffed from the first bytes, which are replayed into the
// upload body.
func proofFromPart(body io.Reader, fileName, contentType string, size int64) (*appmembership.ProofUpload, error) {
	mediaType := ""
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = mt
		}
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(body, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, errors.InvalidParam("unreadable proof file")
		}
		head = head[:n]
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(head))
		body = io.MultiReader(bytes.NewReader(head), body)
	}
	return &appmembership.ProofUpload{
		FileName:    fileName,
		ContentType: mediaType,
		Size:        size,
		Body:        body,
	}, nil
}

//Personal.AI order the ending
