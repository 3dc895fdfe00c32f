// Package api is the REST client for the teaser platform backend. The backend
// is an opaque collaborator; everything here is request plumbing and error
// classification.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/kelp-ai/teaserctl/internal/project"
	"github.com/kelp-ai/teaserctl/internal/session"
)

const (
	// DefaultTimeout is the standard timeout for most backend operations
	DefaultTimeout = 30 * time.Second

	// UploadTimeout is for multipart document uploads
	UploadTimeout = 90 * time.Second

	// DownloadTimeout is for artifact downloads which can be large decks
	DownloadTimeout = 3 * time.Minute

	apiRoot = "/api/v1"
)

// Client handles communication with the teaser platform backend.
type Client struct {
	baseURL        string
	sessions       session.Store
	limiter        *rate.Limiter
	log            *zap.Logger
	defaultClient  *http.Client
	uploadClient   *http.Client // For multipart uploads (90s)
	downloadClient *http.Client // For artifact downloads (3min)
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Defaults to zap.NewNop.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRateLimit caps outbound calls; overlapping poll ticks wait rather
// than stampede the backend.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithHTTPClient replaces the default transport for standard calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.defaultClient = hc }
}

// NewClient creates a backend client. baseURL is the server root without the
// /api/v1 suffix. The session store supplies the bearer credential.
func NewClient(baseURL string, sessions session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		sessions: sessions,
		limiter:  rate.NewLimiter(rate.Limit(10), 20),
		log:      zap.NewNop(),
		defaultClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		uploadClient: &http.Client{
			Timeout: UploadTimeout,
		},
		downloadClient: &http.Client{
			Timeout: DownloadTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody is the backend's JSON error envelope.
type errorBody struct {
	Detail string `json:"detail"`
}

// classify maps a non-2xx response to the error taxonomy.
func classify(op string, resp *http.Response) *Error {
	var body errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)

	kind := KindTransient
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		kind = KindAuth
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		kind = KindValidation
	}
	return &Error{Kind: kind, Op: op, StatusCode: resp.StatusCode, Detail: body.Detail}
}

// newRequest builds a request against the API root with a request ID and,
// when authed, the bearer credential. A missing credential is reported as an
// auth failure without touching the network.
func (c *Client) newRequest(ctx context.Context, op, method, path string, body io.Reader, authed bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Kind: KindTransient, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if authed {
		tok, err := c.sessions.Token()
		if err != nil {
			return nil, &Error{Kind: KindAuth, Op: op, Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	}
	return req, nil
}

// do runs the request through the rate limiter and classifies failures.
// On success the caller owns the response body.
func (c *Client) do(op string, hc *http.Client, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, &Error{Kind: KindTransient, Op: op, Err: err}
	}
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log.Warn("backend request failed",
			zap.String("op", op), zap.Duration("latency", time.Since(start)), zap.Error(err))
		return nil, &Error{Kind: KindTransient, Op: op, Err: err}
	}
	if resp.StatusCode >= 400 {
		apiErr := classify(op, resp)
		resp.Body.Close()
		c.log.Warn("backend rejected request",
			zap.String("op", op), zap.Int("status", resp.StatusCode), zap.String("detail", apiErr.Detail))
		return nil, apiErr
	}
	c.log.Debug("backend call",
		zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Duration("latency", time.Since(start)))
	return resp, nil
}

// doJSON runs the request and decodes the success body into out (unless nil).
func (c *Client) doJSON(op string, hc *http.Client, req *http.Request, out any) error {
	resp, err := c.do(op, hc, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindTransient, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// tokenResponse is the /auth/token success body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token and persists it in the
// session store.
func (c *Client) Login(ctx context.Context, email, password string) (*oauth2.Token, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := c.newRequest(ctx, "login", http.MethodPost, apiRoot+"/auth/token",
		strings.NewReader(form.Encode()), false)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tr tokenResponse
	if err := c.doJSON("login", c.defaultClient, req, &tr); err != nil {
		return nil, err
	}
	tok := &oauth2.Token{AccessToken: tr.AccessToken, TokenType: tr.TokenType}
	if err := c.sessions.SetToken(tok); err != nil {
		return nil, &Error{Kind: KindTransient, Op: "login", Err: fmt.Errorf("persist token: %w", err)}
	}
	return tok, nil
}

// Signup registers a new account. It does not log the user in.
func (c *Client) Signup(ctx context.Context, email, password string) error {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return &Error{Kind: KindValidation, Op: "signup", Err: err}
	}
	req, err := c.newRequest(ctx, "signup", http.MethodPost, apiRoot+"/auth/signup",
		bytes.NewReader(payload), false)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON("signup", c.defaultClient, req, nil)
}

// ListProjects fetches all projects for the authenticated session.
func (c *Client) ListProjects(ctx context.Context) ([]project.Project, error) {
	req, err := c.newRequest(ctx, "list_projects", http.MethodGet, apiRoot+"/projects/", nil, true)
	if err != nil {
		return nil, err
	}
	var out []project.Project
	if err := c.doJSON("list_projects", c.defaultClient, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject fetches a single project.
func (c *Client) GetProject(ctx context.Context, id int64) (*project.Project, error) {
	req, err := c.newRequest(ctx, "get_project", http.MethodGet,
		fmt.Sprintf("%s/projects/%d", apiRoot, id), nil, true)
	if err != nil {
		return nil, err
	}
	var out project.Project
	if err := c.doJSON("get_project", c.defaultClient, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProjectRequest is the payload for CreateProject.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	Website     string `json:"website,omitempty"`
}

// CreateProject creates a new project workspace.
func (c *Client) CreateProject(ctx context.Context, in CreateProjectRequest) (*project.Project, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Op: "create_project", Err: err}
	}
	req, err := c.newRequest(ctx, "create_project", http.MethodPost, apiRoot+"/projects/",
		bytes.NewReader(payload), true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out project.Project
	if err := c.doJSON("create_project", c.defaultClient, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadDocument attaches a source document to a project via multipart upload.
func (c *Client) UploadDocument(ctx context.Context, id int64, filename string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return &Error{Kind: KindTransient, Op: "upload_document", Err: err}
	}
	if _, err := io.Copy(fw, r); err != nil {
		return &Error{Kind: KindTransient, Op: "upload_document", Err: fmt.Errorf("read document: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return &Error{Kind: KindTransient, Op: "upload_document", Err: err}
	}

	req, err := c.newRequest(ctx, "upload_document", http.MethodPost,
		fmt.Sprintf("%s/projects/%d/upload", apiRoot, id), &buf, true)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.doJSON("upload_document", c.uploadClient, req, nil)
}

// Generate asks the backend to start (or retry) teaser generation. The
// backend owns the pending->processing transition timing.
func (c *Client) Generate(ctx context.Context, id int64) error {
	req, err := c.newRequest(ctx, "generate", http.MethodPost,
		fmt.Sprintf("%s/projects/%d/generate", apiRoot, id), nil, true)
	if err != nil {
		return err
	}
	return c.doJSON("generate", c.defaultClient, req, nil)
}

// Download is a retrieved artifact payload.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DownloadArtifact retrieves a generated artifact as a binary payload.
func (c *Client) DownloadArtifact(ctx context.Context, id int64, kind project.ArtifactKind) (*Download, error) {
	if !kind.Valid() {
		return nil, &Error{Kind: KindValidation, Op: "download_artifact",
			Detail: fmt.Sprintf("unknown artifact kind %q", kind)}
	}
	req, err := c.newRequest(ctx, "download_artifact", http.MethodGet,
		fmt.Sprintf("%s/projects/%d/download/%s", apiRoot, id, kind), nil, true)
	if err != nil {
		return nil, err
	}
	resp, err := c.do("download_artifact", c.downloadClient, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransient, Op: "download_artifact", Err: fmt.Errorf("read payload: %w", err)}
	}
	return &Download{
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// DeleteProject removes a project. Confirmation is the caller's concern.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	req, err := c.newRequest(ctx, "delete_project", http.MethodDelete,
		fmt.Sprintf("%s/projects/%d", apiRoot, id), nil, true)
	if err != nil {
		return err
	}
	return c.doJSON("delete_project", c.defaultClient, req, nil)
}

// Health probes the backend root health endpoint (unversioned).
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, "health", http.MethodGet, "/health", nil, false)
	if err != nil {
		return err
	}
	return c.doJSON("health", c.defaultClient, req, nil)
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
