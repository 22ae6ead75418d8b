package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volleyscore/scoreboard/internal/auth"
	"github.com/volleyscore/scoreboard/internal/domain"
	"github.com/volleyscore/scoreboard/internal/media"
	"github.com/volleyscore/scoreboard/internal/metrics"
	"github.com/volleyscore/scoreboard/internal/projection"
	"github.com/volleyscore/scoreboard/internal/repository"
	"github.com/volleyscore/scoreboard/internal/scoring"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "courtside"

type testServer struct {
	router http.Handler
	store  *repository.MemoryStore
	token  string
}

func newTestServer(t *testing.T, authEnabled bool) *testServer {
	t.Helper()
	store := repository.NewMemoryStore()
	logos, err := media.NewLogoStore(t.TempDir(), 1<<20)
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	router := NewRouter(RouterDeps{
		Store:        store,
		Logos:        logos,
		JWTMgr:       auth.NewJWTManager("test-secret", time.Hour),
		Logger:       slog.New(slog.NewJSONHandler(io.Discard, nil)),
		AuthEnabled:  authEnabled,
		PasswordHash: hash,
		Rules:        scoring.DefaultSetRules(),
		PollInterval: time.Second,
		CORSOrigins:  "*",
		Metrics:      metrics.NewRecorder(),
	})
	ts := &testServer{router: router, store: store}
	if authEnabled {
		ts.token = ts.login(t)
	}
	return ts
}

func (ts *testServer) login(t *testing.T) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/auth/login", map[string]string{"password": testPassword}, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.Token
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, withToken bool) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if withToken && ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

type commandResponse struct {
	Bundle  domain.MatchBundle `json:"bundle"`
	Applied bool               `json:"applied"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (ts *testServer) createMatch(t *testing.T, format int) domain.MatchBundle {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/matches", map[string]int{"format": format}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[commandResponse](t, w).Bundle
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, false)
	w := ts.do(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCurrentMatch_NoneYet(t *testing.T) {
	ts := newTestServer(t, false)
	w := ts.do(t, http.MethodGet, "/api/current-match", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
}

func TestOperatorRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(t, http.MethodPost, "/api/matches", map[string]int{"format": 5}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPatch, "/api/settings", map[string]string{"theme": "light"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	b := ts.createMatch(t, 5)

	// Overlay reads stay public.
	w = ts.do(t, http.MethodGet, "/api/current-match/display", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/matches/"+b.Match.ID.String(), nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/matches/"+b.Match.ID.String()+"/export", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSession(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(t, http.MethodGet, "/auth/session", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/auth/session", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authRequired":true`)
	assert.Contains(t, w.Body.String(), `"subject":"operator"`)

	open := newTestServer(t, false)
	w = open.do(t, http.MethodGet, "/auth/session", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authRequired":false}`, w.Body.String())
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t, true)
	w := ts.do(t, http.MethodPost, "/auth/login", map[string]string{"password": "nope"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScoringFlow(t *testing.T) {
	ts := newTestServer(t, true)
	b := ts.createMatch(t, 3)
	base := "/api/matches/" + b.Match.ID.String()

	for i := 0; i < 3; i++ {
		w := ts.do(t, http.MethodPost, base+"/score", map[string]interface{}{"team": "home", "delta": 1}, true)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w := ts.do(t, http.MethodPost, base+"/score", map[string]interface{}{"team": "away", "delta": -1}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[commandResponse](t, w).Applied)

	w = ts.do(t, http.MethodPost, base+"/score?strict=true", map[string]interface{}{"team": "away", "delta": -1}, true)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_STATE")

	w = ts.do(t, http.MethodPost, base+"/score", map[string]interface{}{"team": "left", "delta": 1}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, base+"/display", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	sb := decode[projection.Scoreboard](t, w)
	assert.Equal(t, 3, sb.Home.Score)
	assert.Equal(t, 0, sb.Away.Score)

	w = ts.do(t, http.MethodPost, base+"/reset-set", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[commandResponse](t, w).Bundle.GameState.HomeScore)
}

func TestCompleteSetFlow(t *testing.T) {
	ts := newTestServer(t, true)
	b := ts.createMatch(t, 3)
	base := "/api/matches/" + b.Match.ID.String()

	w := ts.do(t, http.MethodPost, base+"/complete-set",
		map[string]int{"setNumber": 1, "homeScore": 25, "awayScore": 20}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[commandResponse](t, w)
	assert.Equal(t, 2, res.Bundle.Match.CurrentSet)
	assert.Equal(t, 1, res.Bundle.Match.HomeSetsWon)

	// Tied set is rejected and nothing changes.
	w = ts.do(t, http.MethodPost, base+"/complete-set",
		map[string]int{"setNumber": 2, "homeScore": 20, "awayScore": 20}, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Empty body completes with the live scores.
	for i := 0; i < 2; i++ {
		ts.do(t, http.MethodPost, base+"/score", map[string]interface{}{"team": "home", "delta": 1}, true)
	}
	w = ts.do(t, http.MethodPost, base+"/complete-set", nil, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = decode[commandResponse](t, w)
	assert.True(t, res.Bundle.Match.IsComplete)
	require.Len(t, res.Bundle.Match.SetHistory, 2)
	assert.Equal(t, 2, res.Bundle.Match.SetHistory[1].HomeScore)

	w = ts.do(t, http.MethodGet, base+"/audit", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"allPassed":true`)
}

func TestUpdateMatchAndGameState(t *testing.T) {
	ts := newTestServer(t, false)
	b := ts.createMatch(t, 5)
	id := b.Match.ID.String()

	w := ts.do(t, http.MethodPatch, "/api/matches/"+id, map[string]int{"format": 4}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPatch, "/api/matches/"+id, map[string]int{"homeSetsWon": 9}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[commandResponse](t, w).Bundle.Match.HomeSetsWon)

	w = ts.do(t, http.MethodPatch, "/api/game-state/"+id, map[string]interface{}{
		"awayScore":      12,
		"displayOptions": map[string]bool{"showSponsors": true},
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	gs := decode[commandResponse](t, w).Bundle.GameState
	assert.Equal(t, 12, gs.AwayScore)
	assert.True(t, gs.DisplayOptions.ShowSponsors)

	w = ts.do(t, http.MethodPatch, "/api/game-state/not-a-uuid", map[string]int{"homeScore": 1}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTeamAndSettings(t *testing.T) {
	ts := newTestServer(t, false)
	b := ts.createMatch(t, 5)

	w := ts.do(t, http.MethodPatch, "/api/teams/"+b.HomeTeam.ID.String(), map[string]string{"name": "FALCONS"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FALCONS", decode[domain.Team](t, w).Name)

	w = ts.do(t, http.MethodGet, "/api/current-match/display", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FALCONS", decode[projection.Scoreboard](t, w).Home.Name)

	w = ts.do(t, http.MethodGet, "/api/settings", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dark", decode[domain.Settings](t, w).Theme)

	w = ts.do(t, http.MethodPatch, "/api/settings", map[string]string{"theme": "light"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "light", decode[domain.Settings](t, w).Theme)
}

func multipartImage(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "logo.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func fakePNG(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	return data
}

func TestLogoUploadAndServe(t *testing.T) {
	ts := newTestServer(t, false)
	b := ts.createMatch(t, 5)

	body, ctype := multipartImage(t, "logo", fakePNG(8192))
	req := httptest.NewRequest(http.MethodPost, "/api/teams/"+b.AwayTeam.ID.String()+"/logo", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	team := decode[domain.Team](t, w)
	require.NotNil(t, team.LogoPath)
	require.True(t, strings.HasPrefix(*team.LogoPath, "/uploads/"))

	w = ts.do(t, http.MethodGet, *team.LogoPath, nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 8192, w.Body.Len())

	w = ts.do(t, http.MethodGet, "/uploads/..%2Fsecret", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogoUpload_Rejected(t *testing.T) {
	ts := newTestServer(t, false)
	b := ts.createMatch(t, 5)
	path := "/api/teams/" + b.HomeTeam.ID.String() + "/logo"

	tests := []struct {
		name  string
		field string
		data  []byte
	}{
		{"not an image", "logo", []byte("just some text")},
		{"too large", "logo", fakePNG(3 << 20)},
		{"wrong field", "file", fakePNG(1024)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ctype := multipartImage(t, tt.field, tt.data)
			req := httptest.NewRequest(http.MethodPost, path, body)
			req.Header.Set("Content-Type", ctype)
			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
		})
	}
}

func TestSponsorLogoUpload(t *testing.T) {
	ts := newTestServer(t, false)

	body, ctype := multipartImage(t, "logo", fakePNG(1024))
	req := httptest.NewRequest(http.MethodPost, "/api/settings/sponsor-logo", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotNil(t, decode[domain.Settings](t, w).SponsorLogoPath)
}

func TestExportImport(t *testing.T) {
	ts := newTestServer(t, false)
	b := ts.createMatch(t, 5)

	w := ts.do(t, http.MethodGet, "/api/matches/"+b.Match.ID.String()+"/export", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	exported := decode[domain.MatchBundle](t, w)

	w = ts.do(t, http.MethodPost, "/api/matches/import", exported, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	imported := decode[commandResponse](t, w).Bundle
	assert.NotEqual(t, b.Match.ID, imported.Match.ID)

	exported.Match.HomeSetsWon = 2
	w = ts.do(t, http.MethodPost, "/api/matches/import", exported, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdempotencyKeyHeader(t *testing.T) {
	ts := newTestServer(t, false)
	b := ts.createMatch(t, 5)
	path := "/api/matches/" + b.Match.ID.String() + "/score"

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"team":"home","delta":1}`))
		req.Header.Set("Idempotency-Key", "tap-1")
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusConflict, send())
}
