package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/middleware"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/models"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/services"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/utils"
)

var testJWTSecret = []byte("handler-test-secret")

// stubInviteService scripts the service layer so the tests exercise only
// routing, auth plumbing and error mapping.
type stubInviteService struct {
	previews map[string]*services.InvitePreview
	errs     map[string]error

	acceptResult *services.AcceptResult
	acceptErr    error
	lastAcceptBy int

	resolveErr error
}

func (s *stubInviteService) CreateInvite(ctx context.Context, teamID, actorID int, role models.MemberRole, email *string) (*models.Invite, error) {
	return nil, services.ErrForbiddenOperation
}

func (s *stubInviteService) GetInviteByCode(ctx context.Context, code string) (*services.InvitePreview, error) {
	if err, ok := s.errs[code]; ok {
		return nil, err
	}
	if preview, ok := s.previews[code]; ok {
		return preview, nil
	}
	return nil, services.ErrInviteNotFound
}

func (s *stubInviteService) AcceptInvite(ctx context.Context, code string, actorID int) (*services.AcceptResult, error) {
	s.lastAcceptBy = actorID
	if s.acceptErr != nil {
		return nil, s.acceptErr
	}
	return s.acceptResult, nil
}

func (s *stubInviteService) ApproveRequest(ctx context.Context, inviteID, actorID int) error {
	return s.resolveErr
}

func (s *stubInviteService) RejectRequest(ctx context.Context, inviteID, actorID int) error {
	return s.resolveErr
}

func (s *stubInviteService) ListTeamInvites(ctx context.Context, teamID, actorID int) ([]*models.Invite, error) {
	return nil, services.ErrNotTeamMember
}

func (s *stubInviteService) RevokeInvite(ctx context.Context, inviteID, actorID int) error {
	return s.resolveErr
}

func newInviteTestRouter(stub *stubInviteService) http.Handler {
	h := NewInviteHandler(stub)

	router := chi.NewRouter()
	router.Get("/invites/{code}", h.GetInvite)
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		r.Post("/invites/{code}/accept", h.AcceptInvite)
		r.Post("/invites/requests/{inviteID}/approve", h.ApproveRequest)
		r.Post("/teams/{teamID}/invites", h.CreateInvite)
	})
	return router
}

func bearerToken(t *testing.T, userID int) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, testJWTSecret)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	return "Bearer " + token
}

func TestGetInvitePreview(t *testing.T) {
	stub := &stubInviteService{
		previews: map[string]*services.InvitePreview{
			"SBAR-K7WNQ4XH": {
				TeamID:        1,
				TeamName:      "Cardiology Unit",
				SuggestedRole: models.RoleReader,
				ExpiresAt:     time.Date(2026, time.March, 17, 9, 0, 0, 0, time.UTC),
			},
		},
	}
	router := newInviteTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/invites/SBAR-K7WNQ4XH", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body struct {
		Invite services.InvitePreview `json:"invite"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Invite.TeamName != "Cardiology Unit" {
		t.Errorf("team_name = %q, want %q", body.Invite.TeamName, "Cardiology Unit")
	}
}

func TestGetInviteErrorMapping(t *testing.T) {
	stub := &stubInviteService{
		errs: map[string]error{
			"SBAR-EXPIRED2": services.ErrInviteExpired,
			"SBAR-REVOKED2": services.ErrInviteRevoked,
		},
	}
	router := newInviteTestRouter(stub)

	tests := []struct {
		code       string
		wantStatus int
	}{
		{"SBAR-EXPIRED2", http.StatusBadRequest},
		{"SBAR-REVOKED2", http.StatusBadRequest},
		{"SBAR-MISSING2", http.StatusNotFound},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/invites/"+tt.code, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != tt.wantStatus {
			t.Errorf("GET /invites/%s status = %d, want %d", tt.code, rec.Code, tt.wantStatus)
		}
	}
}

func TestAcceptInviteRequiresAuthentication(t *testing.T) {
	router := newInviteTestRouter(&stubInviteService{})

	req := httptest.NewRequest(http.MethodPost, "/invites/SBAR-K7WNQ4XH/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated accept status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodPost, "/invites/SBAR-K7WNQ4XH/accept", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAcceptInvitePassesAuthenticatedActor(t *testing.T) {
	stub := &stubInviteService{
		acceptResult: &services.AcceptResult{TeamID: 1, Role: models.RoleReader, Status: "member"},
	}
	router := newInviteTestRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/invites/SBAR-K7WNQ4XH/accept", nil)
	req.Header.Set("Authorization", bearerToken(t, 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if stub.lastAcceptBy != 42 {
		t.Errorf("accept attributed to user %d, want 42", stub.lastAcceptBy)
	}

	var result services.AcceptResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if result.Status != "member" {
		t.Errorf("result status = %q, want %q", result.Status, "member")
	}
}

func TestAcceptInviteConflictMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{services.ErrInviteAlreadyUsed, http.StatusBadRequest},
		{services.ErrAlreadyTeamMember, http.StatusConflict},
		{services.ErrNotTeamMember, http.StatusForbidden},
	}

	for _, tt := range tests {
		router := newInviteTestRouter(&stubInviteService{acceptErr: tt.err})

		req := httptest.NewRequest(http.MethodPost, "/invites/SBAR-K7WNQ4XH/accept", nil)
		req.Header.Set("Authorization", bearerToken(t, 42))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != tt.wantStatus {
			t.Errorf("accept with %v: status = %d, want %d", tt.err, rec.Code, tt.wantStatus)
		}
	}
}

func TestApproveRequestErrorMapping(t *testing.T) {
	router := newInviteTestRouter(&stubInviteService{resolveErr: services.ErrInviteNotApprovable})

	req := httptest.NewRequest(http.MethodPost, "/invites/requests/7/approve", nil)
	req.Header.Set("Authorization", bearerToken(t, 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("approve of non-approvable invite status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	req = httptest.NewRequest(http.MethodPost, "/invites/requests/not-a-number/approve", nil)
	req.Header.Set("Authorization", bearerToken(t, 42))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("approve with bad invite ID status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateInviteRejectsMalformedBody(t *testing.T) {
	router := newInviteTestRouter(&stubInviteService{})

	req := httptest.NewRequest(http.MethodPost, "/teams/1/invites", strings.NewReader("{not json"))
	req.Header.Set("Authorization", bearerToken(t, 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
