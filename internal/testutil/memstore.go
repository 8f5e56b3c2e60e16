package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/pkg/errors"
)

// MemStore is an in-memory domain.Store for tests.  WithTx snapshots the
// data and restores it when fn fails.  Fail injects errors per operation,
// keyed like "memberships.UpdatePayLink", and Calls counts invocations.
type MemStore struct {
	mu           sync.Mutex
	memberships  map[string]domain.Membership
	installments map[string]domain.Installment
	submissions  map[string]domain.PaymentSubmission

	Fail  map[string]error
	Calls map[string]int
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		memberships:  make(map[string]domain.Membership),
		installments: make(map[string]domain.Installment),
		submissions:  make(map[string]domain.PaymentSubmission),
		Fail:         make(map[string]error),
		Calls:        make(map[string]int),
	}
}

func (s *MemStore) Memberships() domain.MembershipRepository   { return memMemberships{s} }
func (s *MemStore) Installments() domain.InstallmentRepository { return memInstallments{s} }
func (s *MemStore) Submissions() domain.SubmissionRepository   { return memSubmissions{s} }

// WithTx runs fn and rolls the data back if it returns an error.
func (s *MemStore) WithTx(ctx context.Context, fn func(tx domain.Store) error) error {
	s.mu.Lock()
	s.Calls["tx.Begin"]++
	if err := s.Fail["tx.Begin"]; err != nil {
		s.mu.Unlock()
		return err
	}
	ms := cloneMap(s.memberships)
	is := cloneMap(s.installments)
	ss := cloneMap(s.submissions)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.memberships, s.installments, s.submissions = ms, is, ss
		s.Calls["tx.Rollback"]++
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.Calls["tx.Commit"]++
	s.mu.Unlock()
	return nil
}

// Writes returns the number of calls to op.
func (s *MemStore) Writes(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[op]
}

// Membership returns a copy of the stored membership, or nil.
func (s *MemStore) Membership(id string) *domain.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[id]
	if !ok {
		return nil
	}
	return &m
}

// Installment returns a copy of the stored installment, or nil.
func (s *MemStore) Installment(id string) *domain.Installment {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.installments[id]
	if !ok {
		return nil
	}
	return &inst
}

// Submission returns a copy of the stored submission, or nil.
func (s *MemStore) Submission(id string) *domain.PaymentSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil
	}
	return cloneSubmission(&sub)
}

// Seed stores rows directly, bypassing failure injection.
func (s *MemStore) Seed(m *domain.Membership, installments []*domain.Installment, submissions []*domain.PaymentSubmission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m != nil {
		s.memberships[m.ID] = *m
	}
	for _, inst := range installments {
		s.installments[inst.ID] = *inst
	}
	for _, sub := range submissions {
		s.submissions[sub.ID] = *cloneSubmission(sub)
	}
}

func (s *MemStore) enter(op string) error {
	s.Calls[op]++
	return s.Fail[op]
}

func cloneMap[T any](in map[string]T) map[string]T {
	out := make(map[string]T, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneSubmission(sub *domain.PaymentSubmission) *domain.PaymentSubmission {
	cp := *sub
	if sub.AppliedInstallmentIDs != nil {
		cp.AppliedInstallmentIDs = append([]string(nil), sub.AppliedInstallmentIDs...)
	}
	return &cp
}

// ---------------------------------------------------------------------------
// Memberships
// ---------------------------------------------------------------------------

type memMemberships struct{ s *MemStore }

func (r memMemberships) Create(_ context.Context, m *domain.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("memberships.Create"); err != nil {
		return err
	}
	if _, ok := r.s.memberships[m.ID]; ok {
		return errors.Conflict("membership already exists")
	}
	r.s.memberships[m.ID] = *m
	return nil
}

func (r memMemberships) GetByID(_ context.Context, id string) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("memberships.GetByID"); err != nil {
		return nil, err
	}
	m, ok := r.s.memberships[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeMembershipNotFound, "membership not found").WithDetail("membership_id=" + id)
	}
	return &m, nil
}

func (r memMemberships) FindByAssociateSeason(_ context.Context, associateID, season string) ([]*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("memberships.FindByAssociateSeason"); err != nil {
		return nil, err
	}
	var out []*domain.Membership
	for _, m := range r.s.memberships {
		if m.AssociateID == associateID && m.Season == season {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memMemberships) List(_ context.Context, f domain.ListFilter) ([]*domain.Membership, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("memberships.List"); err != nil {
		return nil, 0, err
	}
	var all []*domain.Membership
	for _, m := range r.s.memberships {
		if f.AssociateID != "" && m.AssociateID != f.AssociateID {
			continue
		}
		if f.Season != "" && m.Season != f.Season {
			continue
		}
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		if f.HasPending != nil && (m.InstallmentsPending > 0) != *f.HasPending {
			continue
		}
		m := m
		all = append(all, &m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if f.Offset >= len(all) {
		return []*domain.Membership{}, total, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (r memMemberships) ListIDsAfter(_ context.Context, afterID string, limit int) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("memberships.ListIDsAfter"); err != nil {
		return nil, err
	}
	var ids []string
	for id := range r.s.memberships {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (r memMemberships) update(op, id string, at time.Time, mutate func(m *domain.Membership)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(op); err != nil {
		return err
	}
	m, ok := r.s.memberships[id]
	if !ok {
		return errors.New(errors.ErrCodeMembershipNotFound, "membership not found")
	}
	mutate(&m)
	m.UpdatedAt = at
	r.s.memberships[id] = m
	return nil
}

func (r memMemberships) UpdateStatus(_ context.Context, id string, status domain.MembershipStatus, at time.Time) error {
	return r.update("memberships.UpdateStatus", id, at, func(m *domain.Membership) { m.Status = status })
}

func (r memMemberships) UpdateRollup(_ context.Context, id string, rollup domain.Rollup, at time.Time) error {
	return r.update("memberships.UpdateRollup", id, at, func(m *domain.Membership) { m.Rollup = rollup })
}

func (r memMemberships) UpdatePayLink(_ context.Context, id string, state domain.PayLinkState, at time.Time) error {
	return r.update("memberships.UpdatePayLink", id, at, func(m *domain.Membership) {
		m.PayLinkEnabled = state.Enabled
		m.PayLinkDisabledReason = state.Reason
	})
}

func (r memMemberships) UpdatePayCode(_ context.Context, id, payCode string, at time.Time) error {
	return r.update("memberships.UpdatePayCode", id, at, func(m *domain.Membership) { m.PayCode = payCode })
}

// ---------------------------------------------------------------------------
// Installments
// ---------------------------------------------------------------------------

type memInstallments struct{ s *MemStore }

func (r memInstallments) CreateBatch(_ context.Context, installments []*domain.Installment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("installments.CreateBatch"); err != nil {
		return err
	}
	for _, inst := range installments {
		r.s.installments[inst.ID] = *inst
	}
	return nil
}

func (r memInstallments) ListByMembership(_ context.Context, membershipID string) ([]*domain.Installment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("installments.ListByMembership"); err != nil {
		return nil, err
	}
	var out []*domain.Installment
	for _, inst := range r.s.installments {
		if inst.MembershipID == membershipID {
			inst := inst
			out = append(out, &inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].N < out[j].N })
	return out, nil
}

func (r memInstallments) MarkValidated(_ context.Context, id, submissionID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("installments.MarkValidated"); err != nil {
		return err
	}
	inst, ok := r.s.installments[id]
	if !ok {
		return errors.NotFound("installment not found")
	}
	if inst.Status != domain.InstallmentPending {
		return errors.New(errors.ErrCodeInstallmentApplied, "installment already settled")
	}
	inst.Status = domain.InstallmentValidated
	inst.PaymentSubmissionID = &submissionID
	inst.UpdatedAt = at
	r.s.installments[id] = inst
	return nil
}

// ---------------------------------------------------------------------------
// Submissions
// ---------------------------------------------------------------------------

type memSubmissions struct{ s *MemStore }

func (r memSubmissions) Create(_ context.Context, sub *domain.PaymentSubmission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("submissions.Create"); err != nil {
		return err
	}
	r.s.submissions[sub.ID] = *cloneSubmission(sub)
	return nil
}

func (r memSubmissions) GetByID(_ context.Context, id string) (*domain.PaymentSubmission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("submissions.GetByID"); err != nil {
		return nil, err
	}
	sub, ok := r.s.submissions[id]
	if !ok {
		return nil, errors.NotFound("submission not found").WithDetail("submission_id=" + id)
	}
	return cloneSubmission(&sub), nil
}

func (r memSubmissions) ListByMembership(_ context.Context, membershipID string) ([]*domain.PaymentSubmission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("submissions.ListByMembership"); err != nil {
		return nil, err
	}
	var out []*domain.PaymentSubmission
	for _, sub := range r.s.submissions {
		if sub.MembershipID == membershipID {
			sub := sub
			out = append(out, cloneSubmission(&sub))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memSubmissions) Decide(_ context.Context, id string, d domain.SubmissionDecision) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("submissions.Decide"); err != nil {
		return err
	}
	sub, ok := r.s.submissions[id]
	if !ok {
		return errors.NotFound("submission not found")
	}
	if sub.Status != domain.SubmissionPending {
		return errors.New(errors.ErrCodeSubmissionDecided, "submission already decided")
	}
	decided := d.DecidedAt
	sub.Status = d.Status
	sub.AdminNote = d.AdminNote
	sub.AppliedInstallmentIDs = append([]string(nil), d.AppliedInstallmentIDs...)
	if d.AppliedInstallmentIDs == nil {
		sub.AppliedInstallmentIDs = nil
	}
	sub.AppliedTotal = d.AppliedTotal
	sub.DecidedAt = &decided
	sub.UpdatedAt = decided
	r.s.submissions[id] = sub
	return nil
}

func (r memSubmissions) MarkError(_ context.Context, id, adminNote string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("submissions.MarkError"); err != nil {
		return err
	}
	sub, ok := r.s.submissions[id]
	if !ok {
		return errors.NotFound("submission not found")
	}
	sub.Status = domain.SubmissionError
	sub.AdminNote = &adminNote
	sub.UpdatedAt = at
	r.s.submissions[id] = sub
	return nil
}

func (r memSubmissions) AttachProof(_ context.Context, id string, proof domain.ProofRef, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("submissions.AttachProof"); err != nil {
		return err
	}
	sub, ok := r.s.submissions[id]
	if !ok {
		return errors.NotFound("submission not found")
	}
	sub.Proof = proof
	sub.UpdatedAt = at
	r.s.submissions[id] = sub
	return nil
}

//Personal.AI order the ending
