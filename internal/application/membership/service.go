// Package membership implements the membership payment reconciliation use
// cases: registration, pay-link submissions, admin decisions and the
// maintenance operations that keep derived fields converged.
package membership

import (
	"context"
	"time"

	"github.com/google/uuid"
	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
	"github.com/turtacn/ClubDues/pkg/types/common"
)

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

// Service is the application contract consumed by the HTTP, CLI and worker
// surfaces.
type Service interface {
	// Register creates a membership and its installment schedule, or returns
	// the best existing one for the same associate and season.
	Register(ctx context.Context, req *RegisterRequest) (*RegisterResult, error)
	GetMembership(ctx context.Context, membershipID string) (*MembershipDetail, error)
	ListMemberships(ctx context.Context, req *ListRequest) (common.PageResponse[*domain.Membership], error)

	// OpenPayLink checks the pay code and returns the payer view.  A disabled
	// link is reported in the view rather than as an error.
	OpenPayLink(ctx context.Context, membershipID, code string) (*PayLinkView, error)
	SubmitPayment(ctx context.Context, req *SubmitPaymentRequest) (*SubmitPaymentResult, error)

	SuggestForSubmission(ctx context.Context, submissionID string) (*Suggestion, error)
	SuggestForAmount(ctx context.Context, membershipID string, amount string) (*Suggestion, error)
	ValidateSubmission(ctx context.Context, req *ValidateRequest) (*DecisionResult, error)
	RejectSubmission(ctx context.Context, req *RejectRequest) (*DecisionResult, error)

	// Reconcile recomputes status and rollup from stored rows.  It is
	// idempotent and safe to call at any time.
	Reconcile(ctx context.Context, membershipID string) (*ReconcileResult, error)
	RecomputeRollup(ctx context.Context, membershipID string) (*RollupResult, error)
	SetPayLink(ctx context.Context, req *SetPayLinkRequest) (*PayLinkResult, error)
	RotatePayCode(ctx context.Context, membershipID string) (*PayLinkResult, error)
	PayURL(ctx context.Context, membershipID string) (string, error)
	Sweep(ctx context.Context, req *SweepRequest) (*SweepReport, error)
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// ProofStorage uploads proof files to object storage.
type ProofStorage interface {
	UploadProof(ctx context.Context, membershipID, submissionID string, proof *ProofUpload) (*domain.ProofRef, error)
}

// DecisionLocker serialises decisions on one membership.  Release must be
// safe to call after the lock expired.
type DecisionLocker interface {
	Acquire(ctx context.Context, membershipID string) (release func(), err error)
}

// Metrics receives reconciliation measurements.
type Metrics interface {
	ObserveRegistration(created bool)
	ObserveSubmission(result string)
	ObserveDecision(decision string, degraded bool)
	ObserveSideEffectFailure(name string)
	ObserveStatusChange(from, to domain.MembershipStatus)
	ObserveRollup(d time.Duration)
	ObserveSweep(report *SweepReport, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRegistration(bool)                                             {}
func (noopMetrics) ObserveSubmission(string)                                             {}
func (noopMetrics) ObserveDecision(string, bool)                                         {}
func (noopMetrics) ObserveSideEffectFailure(string)                                      {}
func (noopMetrics) ObserveStatusChange(domain.MembershipStatus, domain.MembershipStatus) {}
func (noopMetrics) ObserveRollup(time.Duration)                                          {}
func (noopMetrics) ObserveSweep(*SweepReport, time.Duration)                             {}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

// ServiceConfig holds tunables for the service.
type ServiceConfig struct {
	// AtomicDecisions runs the submission, installment, status and pay link
	// writes of a decision in one transaction.  When false they run one by
	// one and only the submission/installment writes are fatal.
	AtomicDecisions     bool     `yaml:"atomic_decisions"`
	PublicBaseURL       string   `yaml:"public_base_url"`
	UpToDateMessage     string   `yaml:"up_to_date_message"`
	UnderReviewMessage  string   `yaml:"under_review_message"`
	MaxProofBytes       int64    `yaml:"max_proof_bytes"`
	AllowedContentTypes []string `yaml:"allowed_content_types"`
	SweepBatchSize      int      `yaml:"sweep_batch_size"`

	Clock      func() time.Time `yaml:"-"`
	NewID      func() string    `yaml:"-"`
	NewPayCode func() string    `yaml:"-"`
}

type serviceImpl struct {
	store   domain.Store
	plans   domain.PlanCatalog
	proofs  ProofStorage
	events  EventPublisher
	locker  DecisionLocker
	metrics Metrics
	logger  logging.Logger
	cfg     ServiceConfig
}

// NewService constructs a Service.  events, locker and metrics may be nil.
func NewService(
	store domain.Store,
	plans domain.PlanCatalog,
	proofs ProofStorage,
	events EventPublisher,
	locker DecisionLocker,
	metrics Metrics,
	logger logging.Logger,
	cfg ServiceConfig,
) (Service, error) {
	if store == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "membership store is required")
	}
	if plans == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "plan catalog is required")
	}
	if proofs == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "proof storage is required")
	}
	if events == nil {
		events = noopPublisher{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.UpToDateMessage == "" {
		cfg.UpToDateMessage = "Membership dues are up to date."
	}
	if cfg.UnderReviewMessage == "" {
		cfg.UnderReviewMessage = "A payment is under review."
	}
	if cfg.MaxProofBytes <= 0 {
		cfg.MaxProofBytes = 10 << 20
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = 200
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.NewString() }
	}
	if cfg.NewPayCode == nil {
		cfg.NewPayCode = newPayCode
	}
	return &serviceImpl{
		store:   store,
		plans:   plans,
		proofs:  proofs,
		events:  events,
		locker:  locker,
		metrics: metrics,
		logger:  logger.Named("membership"),
		cfg:     cfg,
	}, nil
}

// newPayCode returns 32 hex characters of randomness.
func newPayCode() string {
	u := uuid.New()
	const hex = "0123456789abcdef"
	out := make([]byte, 0, 32)
	for _, b := range u {
		out = append(out, hex[b>>4], hex[b&0x0f])
	}
	return string(out)
}

func (s *serviceImpl) now() time.Time {
	return s.cfg.Clock()
}

// lock acquires the decision lock when one is configured.
func (s *serviceImpl) lock(ctx context.Context, membershipID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Acquire(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	return release, nil
}

// publish sends an event and returns the delivery error so callers can record
// it on their Outcome.
func (s *serviceImpl) publish(ctx context.Context, evtType string, m *domain.Membership, submissionID string, attrs map[string]string) error {
	evt := &Event{
		Type:         evtType,
		MembershipID: m.ID,
		SubmissionID: submissionID,
		Status:       m.Status.String(),
		Actor:        common.ActorFromContext(ctx),
		Attributes:   attrs,
		OccurredAt:   s.now(),
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn("event publish failed",
			logging.String("event_type", evtType),
			logging.MembershipID(m.ID),
			logging.Err(err))
		return err
	}
	return nil
}

// finishOutcome logs and counts side-effect failures.
func (s *serviceImpl) finishOutcome(op string, m *domain.Membership, o *Outcome) {
	if !o.Degraded() {
		return
	}
	for _, name := range o.FailedSideEffects {
		s.metrics.ObserveSideEffectFailure(name)
	}
	s.logger.Warn("operation completed with failed side effects",
		logging.String("op", op),
		logging.MembershipID(m.ID),
		logging.Any("failed_side_effects", o.FailedSideEffects),
		logging.Err(o.Err()))
}

func (s *serviceImpl) payURL(m *domain.Membership) string {
	if s.cfg.PublicBaseURL == "" {
		return ""
	}
	return domain.PayURL(s.cfg.PublicBaseURL, m)
}

func strPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

//Personal.AI order the ending
