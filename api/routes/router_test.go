package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/internal/loot"
	"github.com/guildforge/guildforge-backend/internal/points"
	"github.com/guildforge/guildforge-backend/internal/ranking"
	"github.com/guildforge/guildforge-backend/internal/systems"
	pkgAuth "github.com/guildforge/guildforge-backend/pkg/auth"
	"github.com/guildforge/guildforge-backend/pkg/config"
	"github.com/guildforge/guildforge-backend/pkg/db"
	"github.com/guildforge/guildforge-backend/pkg/enums"
	"github.com/guildforge/guildforge-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var routerTestSchema = []string{
	`CREATE TABLE IF NOT EXISTS point_systems (
  id TEXT PRIMARY KEY,
  group_id TEXT NOT NULL,
  name TEXT NOT NULL,
  system_type TEXT NOT NULL DEFAULT 'dkp',
  is_active INTEGER NOT NULL DEFAULT 0,
  starting_points INTEGER NOT NULL DEFAULT 0,
  decay_enabled INTEGER NOT NULL DEFAULT 0,
  decay_rate_bps INTEGER NOT NULL DEFAULT 0,
  decay_minimum INTEGER NOT NULL DEFAULT 0,
  attendance_points INTEGER NOT NULL DEFAULT 0,
  kill_points INTEGER NOT NULL DEFAULT 0,
  event_points INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS point_accounts (
  id TEXT PRIMARY KEY,
  loot_system_id TEXT NOT NULL,
  character_id TEXT NOT NULL,
  current_points INTEGER NOT NULL DEFAULT 0,
  earned_total INTEGER NOT NULL DEFAULT 0,
  spent_total INTEGER NOT NULL DEFAULT 0,
  last_earned_at DATETIME,
  last_spent_at DATETIME,
  last_decay_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_point_accounts_system_character
  ON point_accounts (loot_system_id, character_id);`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  amount INTEGER NOT NULL,
  reason TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS loot_records (
  id TEXT PRIMARY KEY,
  loot_system_id TEXT NOT NULL,
  item_name TEXT NOT NULL,
  item_rarity TEXT NOT NULL DEFAULT 'common',
  item_slot TEXT,
  description TEXT,
  source_type TEXT NOT NULL DEFAULT 'other',
  source_name TEXT,
  awarded_to TEXT,
  awarded_by TEXT,
  dkp_cost INTEGER NOT NULL DEFAULT 0,
  dropped_at DATETIME NOT NULL,
  distributed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
}

type routerFixture struct {
	handler http.Handler
	cfg     *config.Config
	groupID uuid.UUID
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range routerTestSchema {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	logg := logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
	client := db.NewFromConn(conn)

	systemsSvc, err := systems.NewService(systems.ServiceParams{
		DB:     client,
		Repo:   systems.NewRepository(conn),
		Logger: logg,
	})
	require.NoError(t, err)

	pointsSvc, err := points.NewService(points.ServiceParams{
		DB:      client,
		Repo:    points.NewRepository(conn),
		Systems: systemsSvc,
		Logger:  logg,
	})
	require.NoError(t, err)

	lootSvc, err := loot.NewService(loot.ServiceParams{
		DB:     client,
		Repo:   loot.NewRepository(conn),
		Points: pointsSvc,
		Logger: logg,
	})
	require.NoError(t, err)

	rankingSvc, err := ranking.NewService(pointsSvc)
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "guildforge-test",
			ExpirationMinutes: 10,
		},
	}

	handler := NewRouter(cfg, logg, nil, nil, systemsSvc, pointsSvc, lootSvc, rankingSvc)
	return &routerFixture{handler: handler, cfg: cfg, groupID: uuid.New()}
}

func (f *routerFixture) token(t *testing.T, role enums.ActorRole) string {
	t.Helper()

	token, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		ActorID: uuid.New(),
		GroupID: f.groupID,
		Role:    role,
	})
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Data
}

func TestRouter_RequiresAuth(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/systems", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_MemberCannotMutate(t *testing.T) {
	f := newRouterFixture(t)
	member := f.token(t, enums.ActorRoleMember)

	rec := f.do(t, http.MethodPost, "/api/v1/systems", member, map[string]any{
		"name":        "raid dkp",
		"system_type": "dkp",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_FullLootWorkflow(t *testing.T) {
	f := newRouterFixture(t)
	officer := f.token(t, enums.ActorRoleOfficer)
	member := f.token(t, enums.ActorRoleMember)

	// Configure and activate a system with starting points.
	rec := f.do(t, http.MethodPost, "/api/v1/systems", officer, map[string]any{
		"name":              "main raid dkp",
		"system_type":       "dkp",
		"starting_points":   100,
		"attendance_points": 10,
		"activate":          true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/systems/active", member, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// First award seeds the balance with starting points.
	characterID := uuid.New()
	rec = f.do(t, http.MethodPost, "/api/v1/points/award", officer, map[string]any{
		"character_id": characterID.String(),
		"kind":         "custom",
		"amount":       20,
		"reason":       "raid attendance",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	account := decodeData[map[string]any](t, rec)
	assert.Equal(t, float64(120), account["CurrentPoints"])

	// Record a drop and distribute it for more than the balance.
	rec = f.do(t, http.MethodPost, "/api/v1/loot", officer, map[string]any{
		"item_name":   "Runed Greatsword",
		"item_rarity": "epic",
		"source_type": "boss",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	drop := decodeData[map[string]any](t, rec)
	lootID := drop["ID"].(string)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/loot/%s/distribute", lootID), officer, map[string]any{
		"character_id": characterID.String(),
		"cost":         150,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Balance clamps at zero; the account survives.
	rec = f.do(t, http.MethodGet, "/api/v1/points/"+characterID.String(), member, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	account = decodeData[map[string]any](t, rec)
	assert.Equal(t, float64(0), account["CurrentPoints"])
	assert.Equal(t, float64(150), account["SpentTotal"])

	// The ledger shows the full requested charge.
	rec = f.do(t, http.MethodGet, "/api/v1/points/"+characterID.String()+"/ledger", member, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Second distribution attempt is rejected.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/loot/%s/distribute", lootID), officer, map[string]any{
		"character_id": characterID.String(),
		"cost":         10,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Leaderboard includes the character at rank 1.
	rec = f.do(t, http.MethodGet, "/api/v1/leaderboard", member, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeData[[]map[string]any](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, float64(1), entries[0]["rank"])
}

func TestRouter_AwardKindUsesSystemConfig(t *testing.T) {
	f := newRouterFixture(t)
	officer := f.token(t, enums.ActorRoleOfficer)

	rec := f.do(t, http.MethodPost, "/api/v1/systems", officer, map[string]any{
		"name":              "epgp",
		"system_type":       "epgp",
		"attendance_points": 25,
		"activate":          true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	characterID := uuid.New()
	rec = f.do(t, http.MethodPost, "/api/v1/points/award", officer, map[string]any{
		"character_id": characterID.String(),
		"kind":         "attendance",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	account := decodeData[map[string]any](t, rec)
	assert.Equal(t, float64(25), account["CurrentPoints"])
	assert.Equal(t, float64(25), account["EarnedTotal"])
}
