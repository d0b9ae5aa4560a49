package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/skills"
)

func testMaster() *skills.MasterRecord {
	return &skills.MasterRecord{
		SkillRecord: skills.SkillRecord{
			Name:        "deploy_Master",
			Description: "Deploy things.",
			Version:     "1.2.10",
			Category:    "devops",
			Tags:        []string{"deploy", "ci"},
		},
		MergedFrom: []string{"deploy", "deployer"},
	}
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestAnnounce(t *testing.T) {
	var received Announcement
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	require.NoError(t, client.Announce(context.Background(), testMaster(), ""))

	assert.Equal(t, "deploy_Master", received.Identifier)
	assert.Equal(t, "1.2.10", received.Version)
	assert.Equal(t, "devops", received.Category)
	assert.Equal(t, []string{"deploy", "deployer"}, received.MergedFrom)
	assert.Equal(t, "clawstr-orchestrator", received.Agent)
}

func TestAnnounceCategoryOverride(t *testing.T) {
	var received Announcement
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	require.NoError(t, client.Announce(context.Background(), testMaster(), "workflows"))
	assert.Equal(t, "workflows", received.Category)
}

func TestAnnounceRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(server.URL, WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, client.Announce(context.Background(), testMaster(), ""))
	assert.Equal(t, int32(3), calls.Load())
}

func TestAnnounceExhaustedRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(server.URL, WithRetry(2, time.Millisecond))
	require.NoError(t, err)

	err = client.Announce(context.Background(), testMaster(), "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "deploy_Master")
}
