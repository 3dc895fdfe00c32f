package devserver

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelp-ai/teaserctl/internal/api"
	"github.com/kelp-ai/teaserctl/internal/project"
	"github.com/kelp-ai/teaserctl/internal/session"
)

// client spins up the double and returns an api.Client logged in as a fresh
// account.
func client(t *testing.T, opts ...Option) (*api.Client, *Server) {
	t.Helper()
	srv := New(opts...)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	c := api.NewClient(ts.URL, session.NewMemoryStore())
	require.NoError(t, c.Signup(context.Background(), "dev@example.com", "devpass"))
	_, err := c.Login(context.Background(), "dev@example.com", "devpass")
	require.NoError(t, err)
	return c, srv
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	c := api.NewClient(ts.URL, session.NewMemoryStore())
	require.NoError(t, c.Health(context.Background()))

	bogus := api.NewClient(ts.URL, session.NewMemoryStore())
	_, err := bogus.Login(context.Background(), "nobody@example.com", "nope")
	assert.True(t, api.IsAuth(err))

	// A bogus bearer must yield 401 on every authenticated route.
	routes := []struct {
		name   string
		method string
		path   string
	}{
		{"list", http.MethodGet, "/api/v1/projects/"},
		{"create", http.MethodPost, "/api/v1/projects/"},
		{"get", http.MethodGet, "/api/v1/projects/1"},
		{"delete", http.MethodDelete, "/api/v1/projects/1"},
		{"upload", http.MethodPost, "/api/v1/projects/1/upload"},
		{"generate", http.MethodPost, "/api/v1/projects/1/generate"},
		{"download", http.MethodGet, "/api/v1/projects/1/download/ppt"},
	}
	for _, rt := range routes {
		t.Run(rt.name, func(t *testing.T) {
			req, err := http.NewRequest(rt.method, ts.URL+rt.path, nil)
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer not-a-real-token")
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestSignupValidation(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	c := api.NewClient(ts.URL, session.NewMemoryStore())

	err := c.Signup(context.Background(), "not-an-email", "pw1234")
	assert.True(t, api.IsValidation(err))

	require.NoError(t, c.Signup(context.Background(), "a@b.com", "pw1234"))
	err = c.Signup(context.Background(), "a@b.com", "pw1234")
	assert.True(t, api.IsValidation(err), "duplicate signup must be rejected")
}

func TestListProjectsOrderedByID(t *testing.T) {
	c, _ := client(t)
	for _, name := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"} {
		_, err := c.CreateProject(context.Background(), api.CreateProjectRequest{Name: name, CompanyName: "C"})
		require.NoError(t, err)
	}

	// Several polls must all come back in the same id order.
	for i := 0; i < 3; i++ {
		projects, err := c.ListProjects(context.Background())
		require.NoError(t, err)
		require.Len(t, projects, 5)
		for j := 1; j < len(projects); j++ {
			assert.Less(t, projects[j-1].ID, projects[j].ID)
		}
	}
}

func TestProjectOwnershipIsolation(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	alice := api.NewClient(ts.URL, session.NewMemoryStore())
	require.NoError(t, alice.Signup(context.Background(), "alice@example.com", "pw1234"))
	_, err := alice.Login(context.Background(), "alice@example.com", "pw1234")
	require.NoError(t, err)

	bob := api.NewClient(ts.URL, session.NewMemoryStore())
	require.NoError(t, bob.Signup(context.Background(), "bob@example.com", "pw1234"))
	_, err = bob.Login(context.Background(), "bob@example.com", "pw1234")
	require.NoError(t, err)

	created, err := alice.CreateProject(context.Background(), api.CreateProjectRequest{Name: "P", CompanyName: "C"})
	require.NoError(t, err)

	bobView, err := bob.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, bobView)

	_, err = bob.GetProject(context.Background(), created.ID)
	assert.True(t, api.IsValidation(err), "cross-tenant access must 404")
}

func TestDownloadBeforeCompletionRejected(t *testing.T) {
	c, _ := client(t)
	created, err := c.CreateProject(context.Background(), api.CreateProjectRequest{Name: "P", CompanyName: "C"})
	require.NoError(t, err)

	_, err = c.DownloadArtifact(context.Background(), created.ID, project.ArtifactTeaser)
	assert.True(t, api.IsValidation(err))
}

func TestGenerationLifecycle(t *testing.T) {
	c, srv := client(t, WithGenerationDelay(30*time.Millisecond))
	srv.Start()
	defer srv.Stop()

	created, err := c.CreateProject(context.Background(), api.CreateProjectRequest{Name: "P", CompanyName: "C"})
	require.NoError(t, err)
	require.NoError(t, c.UploadDocument(context.Background(), created.ID, "fin.pdf", bytes.NewReader([]byte("%PDF"))))
	require.NoError(t, c.Generate(context.Background(), created.ID))

	p, err := c.GetProject(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, project.StatusProcessing, p.Status)

	assert.Eventually(t, func() bool {
		p, err := c.GetProject(context.Background(), created.ID)
		return err == nil && p.Status == project.StatusCompleted
	}, 5*time.Second, 50*time.Millisecond)

	p, err = c.GetProject(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, p.Metrics)
	assert.NotEmpty(t, p.Artifacts)
	assert.NotEmpty(t, p.Sector)
}

func TestForcedFailureAndRetry(t *testing.T) {
	c, srv := client(t, WithGenerationDelay(20*time.Millisecond))
	srv.Start()
	defer srv.Stop()

	created, err := c.CreateProject(context.Background(), api.CreateProjectRequest{Name: "P", CompanyName: "C"})
	require.NoError(t, err)
	require.NoError(t, c.UploadDocument(context.Background(), created.ID, "fin.pdf", bytes.NewReader([]byte("%PDF"))))

	srv.FailNextGeneration(created.ID)
	require.NoError(t, c.Generate(context.Background(), created.ID))

	assert.Eventually(t, func() bool {
		p, err := c.GetProject(context.Background(), created.ID)
		return err == nil && p.Status == project.StatusFailed
	}, 5*time.Second, 20*time.Millisecond)

	// Retry succeeds.
	require.NoError(t, c.Generate(context.Background(), created.ID))
	assert.Eventually(t, func() bool {
		p, err := c.GetProject(context.Background(), created.ID)
		return err == nil && p.Status == project.StatusCompleted
	}, 5*time.Second, 20*time.Millisecond)
}

func TestRevokeAllTokens(t *testing.T) {
	c, srv := client(t)
	srv.RevokeAllTokens()
	_, err := c.ListProjects(context.Background())
	assert.True(t, api.IsAuth(err))
}
