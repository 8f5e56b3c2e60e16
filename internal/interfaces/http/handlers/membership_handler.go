package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/internal/interfaces/http/response"
	"github.com/turtacn/ClubDues/pkg/errors"
)

// ProofLinker signs short-lived download links for stored proofs.
type ProofLinker interface {
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// MembershipHandler serves the admin membership routes.
type MembershipHandler struct {
	svc    appmembership.Service
	proofs ProofLinker
	logger logging.Logger
}

// NewMembershipHandler creates a MembershipHandler.  proofs may be nil, in
// which case the proof download route answers 404.
func NewMembershipHandler(svc appmembership.Service, proofs ProofLinker, logger logging.Logger) *MembershipHandler {
	return &MembershipHandler{svc: svc, proofs: proofs, logger: logger.Named("memberships")}
}

type RegisterMembershipRequest struct {
	AssociateID  string           `json:"associate_id" validate:"required,max=128"`
	Season       string           `json:"season" validate:"required,max=8"`
	PlanID       string           `json:"plan_id" validate:"required,max=128"`
	CustomAmount *decimal.Decimal `json:"custom_amount,omitempty"`
}

type SetPayLinkBody struct {
	Enabled *bool  `json:"enabled" validate:"required"`
	Reason  string `json:"reason,omitempty" validate:"max=500"`
}

// Register handles POST /memberships.  A reused membership answers 200, a
// new one 201.
func (h *MembershipHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterMembershipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	res, err := h.svc.Register(r.Context(), &appmembership.RegisterRequest{
		AssociateID:  req.AssociateID,
		Season:       req.Season,
		PlanID:       req.PlanID,
		CustomAmount: req.CustomAmount,
	})
	if err != nil {
		h.logger.Error("failed to register membership", logging.String("associate_id", req.AssociateID), logging.Err(err))
		writeAppError(w, err)
		return
	}
	if res.Outcome.Degraded() {
		w.Header().Set(response.HeaderDegraded, "true")
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// List handles GET /memberships.
func (h *MembershipHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := &appmembership.ListRequest{
		AssociateID: q.Get("associate_id"),
		Season:      q.Get("season"),
		Status:      q.Get("status"),
		Pagination:  parsePagination(r),
	}
	if v := q.Get("has_pending"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeAppError(w, errors.InvalidParam("has_pending must be a boolean"))
			return
		}
		req.HasPending = &b
	}
	page, err := h.svc.ListMemberships(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /memberships/{membershipID}.
func (h *MembershipHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetMembership(r.Context(), chi.URLParam(r, "membershipID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Reconcile handles POST /memberships/{membershipID}/reconcile.
func (h *MembershipHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Reconcile(r.Context(), chi.URLParam(r, "membershipID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Rollup handles POST /memberships/{membershipID}/rollup.
func (h *MembershipHandler) Rollup(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.RecomputeRollup(r.Context(), chi.URLParam(r, "membershipID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetPayLink handles PUT /memberships/{membershipID}/pay-link.
func (h *MembershipHandler) SetPayLink(w http.ResponseWriter, r *http.Request) {
	var body SetPayLinkBody
	if err := decodeJSON(r, &body); err != nil {
		writeAppError(w, err)
		return
	}
	res, err := h.svc.SetPayLink(r.Context(), &appmembership.SetPayLinkRequest{
		MembershipID: chi.URLParam(r, "membershipID"),
		Enabled:      *body.Enabled,
		Reason:       body.Reason,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RotatePayCode handles POST /memberships/{membershipID}/pay-code.
func (h *MembershipHandler) RotatePayCode(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.RotatePayCode(r.Context(), chi.URLParam(r, "membershipID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Suggest handles GET /memberships/{membershipID}/suggestion?amount=.
func (h *MembershipHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	amount := r.URL.Query().Get("amount")
	if amount == "" {
		writeAppError(w, errors.InvalidParam("amount is required"))
		return
	}
	s, err := h.svc.SuggestForAmount(r.Context(), chi.URLParam(r, "membershipID"), amount)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Proof handles GET /memberships/{membershipID}/submissions/{submissionID}/proof
// by redirecting to a presigned download URL.
func (h *MembershipHandler) Proof(w http.ResponseWriter, r *http.Request) {
	membershipID := chi.URLParam(r, "membershipID")
	submissionID := chi.URLParam(r, "submissionID")
	if h.proofs == nil {
		writeAppError(w, errors.NotFound("proof storage not configured"))
		return
	}
	detail, err := h.svc.GetMembership(r.Context(), membershipID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	for _, sub := range detail.Submissions {
		if sub.ID != submissionID {
			continue
		}
		if sub.Proof.IsZero() {
			break
		}
		url, err := h.proofs.PresignedGetURL(r.Context(), sub.Proof.Path, 0)
		if err != nil {
			h.logger.Error("failed to presign proof", logging.SubmissionID(submissionID), logging.Err(err))
			writeAppError(w, err)
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}
	writeAppError(w, errors.NotFound("proof not found").WithDetail("submission_id="+submissionID))
}

//Personal.AI order the ending
