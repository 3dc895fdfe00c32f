// Package controller owns the authoritative client-side view of the
// session's projects. It refreshes the view on a fixed interval and after
// every successful mutation, and gates user actions on each project's
// server-reported status. The backend is the sole writer of truth; the
// cache here is a disposable projection.
package controller

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kelp-ai/teaserctl/internal/api"
	"github.com/kelp-ai/teaserctl/internal/project"
	"github.com/kelp-ai/teaserctl/internal/session"
)

// DefaultInterval is the poll period while the dashboard is active.
const DefaultInterval = 3 * time.Second

// API is the backend surface the controller depends on. *api.Client
// satisfies it; tests inject fakes.
type API interface {
	ListProjects(ctx context.Context) ([]project.Project, error)
	CreateProject(ctx context.Context, in api.CreateProjectRequest) (*project.Project, error)
	UploadDocument(ctx context.Context, id int64, filename string, r io.Reader) error
	Generate(ctx context.Context, id int64) error
	DownloadArtifact(ctx context.Context, id int64, kind project.ArtifactKind) (*api.Download, error)
	DeleteProject(ctx context.Context, id int64) error
}

// Controller maintains the cached project list and computes legal actions.
type Controller struct {
	api      API
	sessions session.Store
	log      *zap.Logger
	interval time.Duration

	// allowStale reproduces the historical last-resolved-wins behaviour where
	// a slow refresh could overwrite fresher data. Off by default; kept so a
	// regression test can demonstrate the race.
	allowStale bool

	onUpdate      func([]project.Project)
	onAuthExpired func()

	seq atomic.Uint64 // refresh sequence numbers, monotonically increasing

	mu          sync.Mutex
	projects    []project.Project
	applied     uint64 // sequence number of the refresh currently in the cache
	authExpired bool

	kick chan struct{} // re-arms the poll timer after a mutation refresh
}

// Option configures a Controller.
type Option func(*Controller)

// WithInterval overrides the poll period.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) { c.interval = d }
}

// WithLogger sets the logger. Defaults to zap.NewNop.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithStaleWrites disables the sequence guard so the last response to arrive
// wins even if it is stale.
func WithStaleWrites() Option {
	return func(c *Controller) { c.allowStale = true }
}

// OnUpdate registers a callback invoked with a copy of the cache after every
// applied refresh. Used by the dashboard to re-render.
func OnUpdate(fn func([]project.Project)) Option {
	return func(c *Controller) { c.onUpdate = fn }
}

// OnAuthExpired registers a callback invoked once when the backend rejects
// the credential. Used to route the user back to login.
func OnAuthExpired(fn func()) Option {
	return func(c *Controller) { c.onAuthExpired = fn }
}

// New creates a controller. The session store is injected explicitly so the
// controller is testable with fake sessions.
func New(backend API, sessions session.Store, opts ...Option) *Controller {
	c := &Controller{
		api:      backend,
		sessions: sessions,
		log:      zap.NewNop(),
		interval: DefaultInterval,
		kick:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the cached project list.
func (c *Controller) Snapshot() []project.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]project.Project, len(c.projects))
	copy(out, c.projects)
	return out
}

// Get returns the cached project with the given id.
func (c *Controller) Get(id int64) (project.Project, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.projects {
		if p.ID == id {
			return p, true
		}
	}
	return project.Project{}, false
}

// Refresh fetches the full project list and replaces the cache wholesale.
// Each refresh carries a sequence number; a response that resolves after a
// newer one has already been applied is discarded, so overlapping refreshes
// cannot roll the cache back to staler data.
//
// A 401 clears the stored credential (once) and reports ErrAuthRequired via
// the auth-expired callback; no retry. Any other failure leaves the previous
// cache intact; the next scheduled tick retries.
func (c *Controller) Refresh(ctx context.Context) error {
	if _, err := c.sessions.Token(); err != nil {
		return ErrAuthRequired
	}
	c.mu.Lock()
	c.authExpired = false // a credential exists again, resume normal operation
	c.mu.Unlock()

	seq := c.seq.Add(1)
	list, err := c.api.ListProjects(ctx)
	if err != nil {
		if api.IsAuth(err) {
			c.expireAuth()
			return err
		}
		c.log.Warn("refresh failed, keeping cached projects", zap.Error(err))
		return err
	}

	c.mu.Lock()
	if !c.allowStale && seq < c.applied {
		c.mu.Unlock()
		c.log.Debug("discarding stale refresh",
			zap.Uint64("seq", seq), zap.Uint64("applied", c.applied))
		return nil
	}
	c.applied = seq
	c.projects = list
	var snapshot []project.Project
	if c.onUpdate != nil {
		snapshot = make([]project.Project, len(list))
		copy(snapshot, list)
	}
	c.mu.Unlock()

	if c.onUpdate != nil {
		c.onUpdate(snapshot)
	}
	return nil
}

// expireAuth clears the credential exactly once per expiry and notifies the
// UI to return to the login surface.
func (c *Controller) expireAuth() {
	c.mu.Lock()
	already := c.authExpired
	c.authExpired = true
	c.mu.Unlock()
	if already {
		return
	}
	if err := c.sessions.Clear(); err != nil {
		c.log.Warn("failed to clear expired credential", zap.Error(err))
	}
	c.log.Info("credential rejected by backend, re-authentication required")
	if c.onAuthExpired != nil {
		c.onAuthExpired()
	}
}

// Run drives the periodic refresh until ctx is cancelled: one refresh
// immediately, then one per interval. A successful mutation triggers an
// extra refresh and re-arms the timer, so the next periodic tick is a full
// interval after the mutation rather than racing it.
func (c *Controller) Run(ctx context.Context) error {
	_ = c.Refresh(ctx)

	timer := time.NewTimer(c.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			_ = c.Refresh(ctx)
			timer.Reset(c.interval)
		case <-c.kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(c.interval)
		}
	}
}

// rearm requests a timer reset after a mutation-triggered refresh.
func (c *Controller) rearm() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// refreshAfterMutation shortens perceived latency after a successful
// mutating call instead of waiting for the next tick.
func (c *Controller) refreshAfterMutation(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.log.Warn("post-mutation refresh failed", zap.Error(err))
	}
	c.rearm()
}

// CreateProject issues a creation request. An empty name is rejected before
// any network call. The created project is not inserted optimistically; the
// follow-up refresh picks up whatever the server actually stored.
func (c *Controller) CreateProject(ctx context.Context, name, companyName, website string) (*project.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	created, err := c.api.CreateProject(ctx, api.CreateProjectRequest{
		Name:        name,
		CompanyName: companyName,
		Website:     website,
	})
	if err != nil {
		return nil, c.checkAuth(err)
	}
	c.refreshAfterMutation(ctx)
	return created, nil
}

// UploadDocument attaches a document to a pending project. For any other
// status the upload is rejected locally without a network call.
func (c *Controller) UploadDocument(ctx context.Context, id int64, filename string, r io.Reader) error {
	if err := c.gate(id, project.ActionUpload); err != nil {
		return err
	}
	if err := c.api.UploadDocument(ctx, id, filename, r); err != nil {
		return c.checkAuth(err)
	}
	c.refreshAfterMutation(ctx)
	return nil
}

// Generate triggers teaser generation. Legal when the project is pending
// with at least one file, or failed (retry). The backend owns the
// pending->processing transition timing.
func (c *Controller) Generate(ctx context.Context, id int64) error {
	if err := c.gate(id, project.ActionGenerate); err != nil {
		return err
	}
	if err := c.api.Generate(ctx, id); err != nil {
		return c.checkAuth(err)
	}
	c.refreshAfterMutation(ctx)
	return nil
}

// Download retrieves a generated artifact. Legal only once the project is
// completed. Failures are reported, not retried.
func (c *Controller) Download(ctx context.Context, id int64, kind project.ArtifactKind) (*api.Download, error) {
	action := project.ActionDownloadTeaser
	if kind == project.ArtifactCitations {
		action = project.ActionDownloadCitations
	}
	if err := c.gate(id, action); err != nil {
		return nil, err
	}
	dl, err := c.api.DownloadArtifact(ctx, id, kind)
	if err != nil {
		return nil, c.checkAuth(err)
	}
	return dl, nil
}

// DeleteProject removes a project. The explicit user confirmation lives in
// the UI layer; by the time this is called the decision is made.
func (c *Controller) DeleteProject(ctx context.Context, id int64) error {
	if _, ok := c.Get(id); !ok {
		return ErrUnknownProject
	}
	if err := c.api.DeleteProject(ctx, id); err != nil {
		return c.checkAuth(err)
	}
	c.refreshAfterMutation(ctx)
	return nil
}

// gate verifies the action is in the project's current legal action set.
func (c *Controller) gate(id int64, action project.Action) error {
	p, ok := c.Get(id)
	if !ok {
		return ErrUnknownProject
	}
	if !p.Allows(action) {
		return ErrActionNotAllowed
	}
	return nil
}

// checkAuth routes 401s through the shared credential-expiry path so a
// rejected mutation behaves the same as a rejected refresh.
func (c *Controller) checkAuth(err error) error {
	if api.IsAuth(err) {
		c.expireAuth()
	}
	return err
}
