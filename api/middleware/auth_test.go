package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	pkgAuth "github.com/guildforge/guildforge-backend/pkg/auth"
	"github.com/guildforge/guildforge-backend/pkg/config"
	"github.com/guildforge/guildforge-backend/pkg/enums"
)

func jwtTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "middleware-secret",
		Issuer:            "guildforge-test",
		ExpirationMinutes: 5,
	}
}

func mintToken(t *testing.T, cfg config.JWTConfig, role enums.ActorRole) (string, uuid.UUID, uuid.UUID) {
	t.Helper()

	actorID := uuid.New()
	groupID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		ActorID: actorID,
		GroupID: groupID,
		Role:    role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token, actorID, groupID
}

func TestAuthSeedsContext(t *testing.T) {
	cfg := jwtTestConfig()
	token, actorID, groupID := mintToken(t, cfg, enums.ActorRoleOfficer)

	var gotActor, gotGroup, gotRole string
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = ActorIDFromContext(r.Context())
		gotGroup = GroupIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotActor != actorID.String() {
		t.Fatalf("actor mismatch: %s", gotActor)
	}
	if gotGroup != groupID.String() {
		t.Fatalf("group mismatch: %s", gotGroup)
	}
	if gotRole != string(enums.ActorRoleOfficer) {
		t.Fatalf("role mismatch: %s", gotRole)
	}
}

func TestAuthRejectsMissingOrBadToken(t *testing.T) {
	cfg := jwtTestConfig()
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing header, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
}

func TestRequireMutation(t *testing.T) {
	ran := false
	handler := RequireMutation(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.ActorRoleMember)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member, got %d", rec.Code)
	}
	if ran {
		t.Fatal("handler must not run for member role")
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.ActorRoleOfficer)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for officer, got %d", rec.Code)
	}
	if !ran {
		t.Fatal("handler should run for officer role")
	}
}
