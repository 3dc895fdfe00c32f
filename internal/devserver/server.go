// Package devserver is an in-memory double of the teaser platform backend's
// REST contract. It exists so the dashboard and the end-to-end tests can run
// without the real backend; it fakes the contract only and does none of the
// real document parsing, narrative generation, or deck composition.
package devserver

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kelp-ai/teaserctl/internal/project"
)

// Server serves the faked REST contract.
type Server struct {
	store  *memStore
	log    *zap.Logger
	router *gin.Engine
	worker *worker

	// generationDelay is how long a generate runs before it completes.
	generationDelay time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithGenerationDelay controls how long projects stay in processing.
func WithGenerationDelay(d time.Duration) Option {
	return func(s *Server) { s.generationDelay = d }
}

// WithLogger sets the logger. Defaults to zap.NewNop.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New builds the server and its routes.
func New(opts ...Option) *Server {
	s := &Server{
		store:           newMemStore(),
		log:             zap.NewNop(),
		generationDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.worker = newWorker(s.store, s.generationDelay, s.log)
	s.router = s.buildRouter()
	return s
}

// Router exposes the gin engine, mainly for httptest.
func (s *Server) Router() *gin.Engine { return s.router }

// Start launches the generation worker. Stop must be called to release it.
func (s *Server) Start() { s.worker.start() }

// Stop halts the generation worker.
func (s *Server) Stop() { s.worker.stop() }

// FailNextGeneration forces the next generate on the project to end failed.
func (s *Server) FailNextGeneration(id int64) { s.store.failNextGeneration(id) }

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := r.Group("/api/v1")
	api.POST("/auth/signup", s.signup)
	api.POST("/auth/token", s.token)

	authed := api.Group("/projects")
	authed.Use(s.bearerAuth())
	authed.GET("/", s.list)
	authed.POST("/", s.create)
	authed.GET("/:id", s.get)
	authed.DELETE("/:id", s.delete)
	authed.POST("/:id/upload", s.upload)
	authed.POST("/:id/generate", s.generate)
	authed.GET("/:id/download/:artifact_type", s.download)

	return r
}

// requestIDMiddleware mirrors the real backend's request correlation: reads
// X-Request-Id if present, generates one otherwise, echoes it back.
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-Id")
		if strings.TrimSpace(rid) == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Writer.Header().Set("X-Request-Id", rid)

		start := time.Now()
		c.Next()

		s.log.Debug("request",
			zap.String("request_id", rid),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) bearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}
		email, ok := s.store.emailForToken(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
			return
		}
		c.Set("user_email", email)
		c.Next()
	}
}

type signupReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil ||
		!strings.Contains(req.Email, "@") || len(req.Password) < 4 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid email or password"})
		return
	}
	if err := s.store.addUser(req.Email, req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": req.Email, "is_active": true})
}

func (s *Server) token(c *gin.Context) {
	email := c.PostForm("username")
	password := c.PostForm("password")
	if !s.store.authenticate(email, password) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect email or password"})
		return
	}
	tok := uuid.NewString()
	s.store.issueToken(tok, email)
	c.JSON(http.StatusOK, gin.H{"access_token": tok, "token_type": "bearer"})
}

// RevokeAllTokens invalidates every issued token so clients see 401s. Used
// to exercise the re-login path.
func (s *Server) RevokeAllTokens() { s.store.revokeAllTokens() }

type createProjectReq struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	Website     string `json:"website"`
}

func (s *Server) create(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid body"})
		return
	}
	p := s.store.createProject(c.GetString("user_email"), strings.TrimSpace(req.Name), req.CompanyName, req.Website)
	c.JSON(http.StatusOK, p)
}

func (s *Server) list(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.listProjects(c.GetString("user_email")))
}

func (s *Server) get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	p, found := s.store.getProject(c.GetString("user_email"), id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Project not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if !s.store.deleteProject(c.GetString("user_email"), id) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Project not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) upload(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "missing file field"})
		return
	}

	fileType := "unknown"
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".pdf":
		fileType = "pdf"
	case ".xlsx":
		fileType = "excel"
	}

	f, found := s.store.addFile(c.GetString("user_email"), id, file.Filename, fileType)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Project not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": f.ID, "filename": f.Filename})
}

func (s *Server) generate(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if !s.store.startGeneration(c.GetString("user_email"), id) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Project not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "queued", "project_id": id})
}

func (s *Server) download(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	kind := project.ArtifactKind(c.Param("artifact_type"))
	p, found := s.store.getProject(c.GetString("user_email"), id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Project not found"})
		return
	}
	var have bool
	for _, a := range p.Artifacts {
		if a.Type == kind {
			have = true
			break
		}
	}
	if p.Status != project.StatusCompleted || !have {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Artifact not found"})
		return
	}

	filename := fmt.Sprintf("%s_%s.pptx", sanitize(p.CompanyName), "teaser")
	contentType := "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	if kind == project.ArtifactCitations {
		filename = fmt.Sprintf("%s_citations.pdf", sanitize(p.CompanyName))
		contentType = "application/pdf"
	}
	payload := []byte(fmt.Sprintf("FAKE-%s-ARTIFACT project=%d company=%s", kind, p.ID, p.CompanyName))

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid project id"})
		return 0, false
	}
	return id, true
}

func sanitize(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return strings.ReplaceAll(name, " ", "_")
}
