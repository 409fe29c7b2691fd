// Package web exposes the pipeline over HTTP: a minimal upload form plus a
// JSON API for processing, committing and browsing history.
package web

import (
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/podscript-ai/podscript/pkg/content"
	"github.com/podscript-ai/podscript/pkg/history"
	"github.com/podscript-ai/podscript/pkg/logging"
	"github.com/podscript-ai/podscript/pkg/manuscript"
	"github.com/podscript-ai/podscript/pkg/model"
)

// Server wires the HTTP surface onto the orchestrator and the history store.
type Server struct {
	engine    *gin.Engine
	orch      *content.Orchestrator
	store     history.Store
	fs        afero.Fs
	uploadDir string
}

// Option customizes a Server.
type Option func(*Server)

// WithServerFs overrides the filesystem uploads are spooled to.
func WithServerFs(fs afero.Fs) Option {
	return func(s *Server) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithUploadDir overrides where uploads are spooled.
func WithUploadDir(dir string) Option {
	return func(s *Server) {
		if dir != "" {
			s.uploadDir = dir
		}
	}
}

func NewServer(orch *content.Orchestrator, store history.Store, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:    engine,
		orch:      orch,
		store:     store,
		fs:        afero.NewOsFs(),
		uploadDir: "uploads",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	api.POST("/process", s.handleProcess)
	api.POST("/commit", s.handleCommit)
	api.GET("/history/:show", s.handleHistory)
	api.GET("/history/:show/export", s.handleExport)
	api.GET("/shows", s.handleShows)
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, indexPage)
}

type outcomeResponse struct {
	Type    string                   `json:"type"`
	Titles  []string                 `json:"titles,omitempty"`
	Body    string                   `json:"body,omitempty"`
	Meta    model.GenerationMetadata `json:"meta,omitempty"`
	Error   string                   `json:"error,omitempty"`
	Success bool                     `json:"success"`
}

type processResponse struct {
	Show     string              `json:"show"`
	Source   string              `json:"source"`
	Language string              `json:"language"`
	Text     manuscript.Metadata `json:"text"`
	Outcomes []outcomeResponse   `json:"outcomes"`
}

func (s *Server) handleProcess(c *gin.Context) {
	show := strings.TrimSpace(c.PostForm("show"))
	if show == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "show is required"})
		return
	}

	types, err := parseTypes(c.PostForm("types"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a file upload is required"})
		return
	}

	path, cleanup, err := s.spool(header)
	if err != nil {
		logging.NewLogger(c.Request.Context()).Errorf("spooling upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not accept the upload"})
		return
	}
	defer cleanup()

	input := content.Input{
		Show:     show,
		Language: strings.TrimSpace(c.PostForm("language")),
		Types:    types,
	}
	if strings.EqualFold(filepath.Ext(header.Filename), ".txt") {
		input.ManuscriptPath = path
	} else {
		input.AudioPath = path
	}

	result, err := s.orch.Process(c.Request.Context(), input)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": model.UserMessage(err)})
		return
	}

	resp := processResponse{
		Show:     show,
		Source:   string(result.Transcript.Source),
		Language: result.Transcript.Language,
		Text:     manuscript.ExtractMetadata(result.Transcript.Text),
	}
	for _, outcome := range result.Outcomes {
		item := outcomeResponse{
			Type:    string(outcome.Type),
			Success: outcome.Err == nil,
			Meta:    outcome.Metadata,
		}
		if outcome.Err != nil {
			item.Error = model.UserMessage(outcome.Err)
		} else {
			item.Titles = outcome.Artifact.Titles
			item.Body = outcome.Artifact.Body
		}
		resp.Outcomes = append(resp.Outcomes, item)
	}
	c.JSON(http.StatusOK, resp)
}

// spool writes the upload next to the data directory so the pipeline can
// validate and probe it as a regular file.
func (s *Server) spool(header *multipart.FileHeader) (string, func(), error) {
	if err := s.fs.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", nil, err
	}

	src, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer func() {
		_ = src.Close()
	}()

	path := filepath.Join(s.uploadDir, uuid.NewString()+filepath.Ext(header.Filename))
	if err := afero.WriteReader(s.fs, path, src); err != nil {
		return "", nil, err
	}
	cleanup := func() {
		_ = s.fs.Remove(path)
	}
	return path, cleanup, nil
}

type commitRequest struct {
	Show    string `json:"show" binding:"required"`
	Results []struct {
		Type    string `json:"type" binding:"required"`
		Payload string `json:"payload" binding:"required"`
	} `json:"results" binding:"required,min=1"`
}

func (s *Server) handleCommit(c *gin.Context) {
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commit request"})
		return
	}

	saved := make([]model.HistoryEntry, 0, len(req.Results))
	for _, result := range req.Results {
		artifactType, ok := model.ParseArtifactType(result.Type)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown artifact type " + result.Type})
			return
		}
		entry, err := s.store.Append(req.Show, artifactType, result.Payload)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": model.UserMessage(err)})
			return
		}
		saved = append(saved, entry)
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

func (s *Server) handleHistory(c *gin.Context) {
	show := c.Param("show")
	out := gin.H{}
	for _, artifactType := range model.AllArtifactTypes() {
		entries, err := s.store.Recent(show, artifactType, 0)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": model.UserMessage(err)})
			return
		}
		if len(entries) > 0 {
			out[string(artifactType)] = entries
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleExport(c *gin.Context) {
	fileStore, ok := s.store.(*history.FileStore)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "export is not supported by this store"})
		return
	}
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="history.json"`)
	if err := fileStore.Export(c.Writer, c.Param("show")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": model.UserMessage(err)})
	}
}

func (s *Server) handleShows(c *gin.Context) {
	shows, err := s.store.Shows()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": model.UserMessage(err)})
		return
	}
	if shows == nil {
		shows = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"shows": shows})
}

func parseTypes(raw string) ([]model.ArtifactType, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var types []model.ArtifactType
	for _, name := range strings.Split(raw, ",") {
		artifactType, ok := model.ParseArtifactType(name)
		if !ok {
			return nil, &unknownTypeError{name: strings.TrimSpace(name)}
		}
		types = append(types, artifactType)
	}
	return types, nil
}

type unknownTypeError struct {
	name string
}

func (e *unknownTypeError) Error() string {
	return "unknown artifact type " + e.name
}

func statusFor(err error) int {
	switch {
	case model.IsKind(err, model.KindValidation):
		return http.StatusBadRequest
	case model.IsKind(err, model.KindTransport):
		return http.StatusBadGateway
	case model.IsKind(err, model.KindExtraction):
		return http.StatusBadGateway
	case model.IsKind(err, model.KindPersistence):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
