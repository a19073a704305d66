package cmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/redistq/internal/admission"
	"github.com/mattjoyce/redistq/internal/content"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, SiteCode: "PS1", Token: "tok"})
}

func TestPing(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/sites/PS1/ping", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestPingFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "establish backend session")
}

func TestDistributionStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/PS1/distributions/status", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"targeted": 120, "number_in_progress": 6},
			{"targeted": 3, "number_in_progress": 0}
		]`))
	})

	snap, err := c.DistributionStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, admission.Snapshot{
		{Targeted: 120, NumberInProgress: 6},
		{Targeted: 3, NumberInProgress: 0},
	}, snap)
}

func TestDeploymentTypeNames(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/PS1/applications/Office%20365/deployment-types", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"deployment_types": ["msi", "appv"]}`))
	})

	names, err := c.DeploymentTypeNames(context.Background(), "Office 365")
	require.NoError(t, err)
	assert.Equal(t, []string{"msi", "appv"}, names)
}

func TestDeploymentTypeNamesNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.DeploymentTypeNames(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBeginDistribution(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sites/PS1/distributions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	})

	err := c.BeginDistribution(context.Background(), content.KindApplication, "APP1", "msi")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"kind":            "application",
		"id":              "APP1",
		"deployment_type": "msi",
	}, got)
}

func TestBeginDistributionOmitsEmptyDeploymentType(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	})

	require.NoError(t, c.BeginDistribution(context.Background(), content.KindPackage, "PKG1", ""))
	assert.NotContains(t, got, "deployment_type")
}

func TestBeginDistributionRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "validation failed", http.StatusUnprocessableEntity)
	})

	err := c.BeginDistribution(context.Background(), content.KindPackage, "PKG1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestResolveContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/PS1/content/package", r.URL.Path)
		assert.Equal(t, "Contoso Core", r.URL.Query().Get("name"))
		_, _ = w.Write([]byte(`{"id": "PKG00042"}`))
	})

	id, err := c.ResolveContent(context.Background(), content.KindPackage, "Contoso Core")
	require.NoError(t, err)
	assert.Equal(t, "PKG00042", id)
}

func TestResolveContentNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.ResolveContent(context.Background(), content.KindDriver, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
