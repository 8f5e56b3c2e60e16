package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/internal/interfaces/http/response"
)

// SubmissionHandler serves admin decisions on payment submissions.
type SubmissionHandler struct {
	svc    appmembership.Service
	logger logging.Logger
}

// NewSubmissionHandler creates a SubmissionHandler.
func NewSubmissionHandler(svc appmembership.Service, logger logging.Logger) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, logger: logger.Named("submissions")}
}

// ValidateSubmissionBody is the body of POST /submissions/{submissionID}/validate.
type ValidateSubmissionBody struct {
	InstallmentIDs []string `json:"installment_ids" validate:"dive,required,max=64"`
	AdminNote      string   `json:"admin_note,omitempty" validate:"max=2000"`
}

// RejectSubmissionBody is the body of POST /submissions/{submissionID}/reject.
type RejectSubmissionBody struct {
	AdminNote string `json:"admin_note,omitempty" validate:"max=2000"`
}

// Suggest handles GET /submissions/{submissionID}/suggestion.
func (h *SubmissionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.SuggestForSubmission(r.Context(), chi.URLParam(r, "submissionID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Validate handles POST /submissions/{submissionID}/validate.
func (h *SubmissionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var body ValidateSubmissionBody
	if err := decodeJSON(r, &body); err != nil {
		writeAppError(w, err)
		return
	}
	id := chi.URLParam(r, "submissionID")
	res, err := h.svc.ValidateSubmission(r.Context(), &appmembership.ValidateRequest{
		SubmissionID:   id,
		InstallmentIDs: body.InstallmentIDs,
		AdminNote:      body.AdminNote,
	})
	if err != nil {
		h.logger.Warn("validate failed", logging.SubmissionID(id), logging.Err(err))
		writeAppError(w, err)
		return
	}
	response.Degraded(w, res.Outcome.Degraded(), res)
}

// Reject handles POST /submissions/{submissionID}/reject.
func (h *SubmissionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var body RejectSubmissionBody
	if err := decodeJSON(r, &body); err != nil {
		writeAppError(w, err)
		return
	}
	id := chi.URLParam(r, "submissionID")
	res, err := h.svc.RejectSubmission(r.Context(), &appmembership.RejectRequest{
		SubmissionID: id,
		AdminNote:    body.AdminNote,
	})
	if err != nil {
		h.logger.Warn("reject failed", logging.SubmissionID(id), logging.Err(err))
		writeAppError(w, err)
		return
	}
	response.Degraded(w, res.Outcome.Degraded(), res)
}

//Personal.AI order the ending
