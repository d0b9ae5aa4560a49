package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/orchestrator"
)

type stubRunSource struct {
	summary *orchestrator.Summary
	err     error
}

func (s *stubRunSource) Latest(ctx context.Context) (*orchestrator.Summary, error) {
	return s.summary, s.err
}

func writeSkill(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestServer(t *testing.T, runs RunSource) (*Server, string) {
	t.Helper()

	repo := t.TempDir()
	orch, err := orchestrator.New(orchestrator.DefaultConfig(repo))
	require.NoError(t, err)

	srv, err := NewServer(&ServerConfig{Host: "localhost", Port: 8080}, orch, runs)
	require.NoError(t, err)
	return srv, repo
}

func TestServerConfigValidate(t *testing.T) {
	assert.Error(t, (&ServerConfig{Host: "", Port: 8080}).Validate())
	assert.Error(t, (&ServerConfig{Host: "localhost", Port: 0}).Validate())
	assert.Error(t, (&ServerConfig{Host: "localhost", Port: 70000}).Validate())
	assert.NoError(t, (&ServerConfig{Host: "localhost", Port: 8080}).Validate())
}

func TestHandleIndex(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "clawstr-skill-orchestrator", body["service"])
}

func TestHandleHealth(t *testing.T) {
	srv, repo := newTestServer(t, nil)
	writeSkill(t, filepath.Join(repo, "skills"), "deploy.md", "---\nname: deploy\n---\nBody")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["skills_root_exists"])
	assert.Equal(t, float64(1), body["skill_count"])
}

func TestHandleHealthMissingSkillsRoot(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["skills_root_exists"])
	assert.Equal(t, float64(0), body["skill_count"])
}

func TestHandleStatus(t *testing.T) {
	runs := &stubRunSource{summary: &orchestrator.Summary{
		RunID:            "run-1",
		Status:           orchestrator.StatusSuccess,
		SkillsDiscovered: 4,
		StartedAt:        time.Now(),
		FinishedAt:       time.Now(),
	}}
	srv, _ := newTestServer(t, runs)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body["runId"])
	assert.Equal(t, "success", body["status"])
}

func TestHandleStatusNoRuns(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunSource{})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleStatusNoStore(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleOrchestrate(t *testing.T) {
	srv, repo := newTestServer(t, nil)
	skillsDir := filepath.Join(repo, "skills")
	writeSkill(t, skillsDir, "deploy.md", "---\nname: deploy\nversion: 1.2.3\n---\nBody")
	writeSkill(t, skillsDir, "garden.md", "---\nname: garden\n---\nBody")

	req := httptest.NewRequest(http.MethodPost, "/orchestrate", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status           string         `json:"status"`
		SkillsDiscovered int            `json:"skills_discovered"`
		Skills           []skillPreview `json:"skills"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 2, body.SkillsDiscovered)
	require.Len(t, body.Skills, 2)
}

func TestOrchestrateRequiresPost(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/orchestrate", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
