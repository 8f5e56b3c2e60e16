package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	"github.com/turtacn/ClubDues/internal/config"
	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/auth/token"
	httpserver "github.com/turtacn/ClubDues/internal/interfaces/http"
	"github.com/turtacn/ClubDues/internal/interfaces/http/handlers"
	"github.com/turtacn/ClubDues/internal/interfaces/http/middleware"
	"github.com/turtacn/ClubDues/internal/testutil"
)

type noProofs struct{}

func (noProofs) UploadProof(context.Context, string, string, *appmembership.ProofUpload) (*domain.ProofRef, error) {
	return nil, errors.New("proof uploads are not used by the admin API")
}

// APISuite drives the SDK against the real admin routes over an in-memory
// store.
type APISuite struct {
	suite.Suite
	svc    appmembership.Service
	server *httptest.Server
	client *Client
}

func (s *APISuite) SetupTest() {
	store := testutil.NewMemStore()
	plans := testutil.NewMemPlanCatalog(testutil.InstallmentPlan("three", true, 1000, 1000, 1000))
	log := testutil.NewNopLogger()

	svc, err := appmembership.NewService(store, plans, noProofs{}, nil, nil, nil, log, appmembership.ServiceConfig{
		AtomicDecisions: true,
		PublicBaseURL:   "https://club.example.org",
	})
	s.Require().NoError(err)
	s.svc = svc

	verifier := token.NewVerifier(config.AuthConfig{JWTSecret: "s3cret", AdminRole: "admin", APIKeys: []string{"ops"}})
	router := httpserver.NewRouter(httpserver.RouterConfig{
		MembershipHandler: handlers.NewMembershipHandler(svc, nil, log),
		SubmissionHandler: handlers.NewSubmissionHandler(svc, log),
		AuthMiddleware:    middleware.NewAuthMiddleware(verifier, log),
	})
	s.server = httptest.NewServer(router)

	jwt, err := verifier.Issue("treasurer@club", []string{"admin"}, time.Hour)
	s.Require().NoError(err)
	s.client, err = NewClient(s.server.URL, "", WithBearerToken(jwt), WithRetryMax(0))
	s.Require().NoError(err)
}

func (s *APISuite) TearDownTest() {
	s.server.Close()
}

func (s *APISuite) register(associate string) *RegisterResult {
	res, err := s.client.Memberships().Register(context.Background(), &RegisterRequest{
		AssociateID: associate, Season: "2026", PlanID: "three",
	})
	s.Require().NoError(err)
	return res
}

func (s *APISuite) TestRegisterIsIdempotentPerSeason() {
	first := s.register("assoc-1")
	s.True(first.Created)
	s.Len(first.Installments, 3)
	s.Equal("pending", first.Membership.Status)
	s.Contains(first.PayURL, "mid="+first.Membership.ID)

	second := s.register("assoc-1")
	s.False(second.Created)
	s.Equal(first.Membership.ID, second.Membership.ID)
}

func (s *APISuite) TestGetListAndAdmin() {
	ctx := context.Background()
	reg := s.register("assoc-1")
	s.register("assoc-2")

	detail, err := s.client.Memberships().Get(ctx, reg.Membership.ID)
	s.Require().NoError(err)
	s.Equal(3, detail.Membership.InstallmentsPending)
	s.True(detail.Installments[0].Amount.Equal(decimal.NewFromInt(1000)))

	pending := true
	page, err := s.client.Memberships().List(ctx, &ListOptions{HasPending: &pending, PageSize: 1})
	s.Require().NoError(err)
	s.Equal(int64(2), page.Total)
	s.Len(page.Items, 1)

	_, err = s.client.Memberships().Get(ctx, "missing")
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.True(apiErr.IsNotFound())
	s.Equal("not_found", apiErr.Kind)

	off, err := s.client.Memberships().SetPayLink(ctx, reg.Membership.ID, false, "paused by treasurer")
	s.Require().NoError(err)
	s.False(off.Membership.PayLinkEnabled)

	rotated, err := s.client.Memberships().RotatePayCode(ctx, reg.Membership.ID)
	s.Require().NoError(err)
	s.NotEqual(reg.PayURL, rotated.PayURL)

	rec, err := s.client.Memberships().Reconcile(ctx, reg.Membership.ID)
	s.Require().NoError(err)
	s.False(rec.StatusChanged)

	roll, err := s.client.Memberships().RecomputeRollup(ctx, reg.Membership.ID)
	s.Require().NoError(err)
	s.Equal(3, roll.Rollup.InstallmentsTotal)
}

func (s *APISuite) TestSuggestValidateAndReject() {
	ctx := context.Background()
	reg := s.register("assoc-1")

	sug, err := s.client.Memberships().Suggest(ctx, reg.Membership.ID, decimal.NewFromInt(2000))
	s.Require().NoError(err)
	s.Equal([]string{reg.Installments[0].ID, reg.Installments[1].ID}, sug.InstallmentIDs)
	s.True(sug.ExactMatch)

	detail, err := s.svc.GetMembership(ctx, reg.Membership.ID)
	s.Require().NoError(err)
	sub, err := s.svc.SubmitPayment(ctx, &appmembership.SubmitPaymentRequest{
		MembershipID:   reg.Membership.ID,
		Code:           detail.Membership.PayCode,
		PayerName:      "Ana Payer",
		AmountReported: decimal.NewFromInt(2000),
	})
	s.Require().NoError(err)

	fromSub, err := s.client.Submissions().Suggest(ctx, sub.Submission.ID)
	s.Require().NoError(err)
	s.Equal(sug.InstallmentIDs, fromSub.InstallmentIDs)

	res, err := s.client.Submissions().Validate(ctx, sub.Submission.ID, fromSub.InstallmentIDs, "bank statement checked")
	s.Require().NoError(err)
	s.Equal("validated", res.Submission.Status)
	s.Equal("partial", res.Membership.Status)
	s.True(res.StatusChanged)
	s.False(res.Degraded)

	_, err = s.client.Submissions().Reject(ctx, sub.Submission.ID, "too late")
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.True(apiErr.IsConflict())
	s.Equal("invalid_state", apiErr.Kind)
}

func (s *APISuite) TestRejectsBadCredentials() {
	c, err := NewClient(s.server.URL, "wrong", WithRetryMax(0))
	s.Require().NoError(err)
	_, err = c.Memberships().List(context.Background(), nil)
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.True(apiErr.IsUnauthorized())
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

//Personal.AI order the ending
