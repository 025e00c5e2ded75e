// Package server exposes the form pipeline as an HTTP intake API. Each
// request gets its own Form Controller; nothing is shared between
// submissions.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maxcoop/subscription-form/internal/config"
	"github.com/maxcoop/subscription-form/internal/delivery"
	"github.com/maxcoop/subscription-form/internal/form"
)

// Server hosts the intake API.
type Server struct {
	cfg      *config.Config
	renderer form.Renderer
	engine   *gin.Engine
}

// New creates the intake server and registers its routes.
func New(cfg *config.Config, renderer form.Renderer) *Server {
	if !cfg.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:      cfg,
		renderer: renderer,
		engine:   engine,
	}

	engine.GET("/healthz", s.handleHealth)
	engine.POST("/api/v1/submissions", s.handleSubmission)

	return s
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Intake API listening on %s", s.cfg.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down intake API: %w", err)
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// Handler exposes the router, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": s.cfg.ServiceName,
		"version": s.cfg.Version,
	})
}

// handleSubmission accepts one multipart submission: the flat field set,
// the id_types selection, the optional passport_photo, and one
// document_<KEY> file per selected identification type. A valid
// submission comes back as the rendered PDF with the compose deep link in
// a header; a validation failure comes back as 422 with the user-facing
// message.
func (s *Server) handleSubmission(c *gin.Context) {
	mf, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}

	ctrl := form.NewController(s.renderer, form.WithMaxUploadSize(s.cfg.MaxUploadSize))

	for name, values := range mf.Value {
		if name == "id_types" || len(values) == 0 {
			continue
		}
		if err := ctrl.State().ApplyField(name, values[0]); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	for _, key := range mf.Value["id_types"] {
		kind, ok := form.ParseIDKind(key)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown identification type: %s", key)})
			return
		}
		ctrl.ToggleIDSlot(kind, true)
	}

	if err := s.ingestFiles(ctrl, mf); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artifact, err := ctrl.Generate(c.Request.Context())
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": verr.Message,
				"field": verr.Field,
			})
			return
		}
		log.Printf("Submission failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	composeURL := delivery.ComposeURL(s.cfg.RecipientEmail, artifact.Record.Subscriber.FullName)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	c.Header("X-Compose-URL", composeURL)
	c.Header("X-Submission-ID", artifact.Record.SubmissionID.String())
	c.Data(http.StatusOK, "application/pdf", artifact.PDF)
}

func (s *Server) ingestFiles(ctrl *form.Controller, mf *multipart.Form) error {
	if headers := mf.File["passport_photo"]; len(headers) > 0 {
		if err := s.ingest(headers[0], func(name string, f multipart.File) error {
			return ctrl.IngestPassportPhoto(name, f)
		}); err != nil {
			return err
		}
	}

	for _, kind := range form.AllIDKinds {
		headers := mf.File["document_"+kind.Key()]
		if len(headers) == 0 {
			continue
		}
		if err := s.ingest(headers[0], func(name string, f multipart.File) error {
			_, err := ctrl.IngestIDDocument(kind, name, f)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) ingest(header *multipart.FileHeader, fn func(string, multipart.File) error) error {
	f, err := header.Open()
	if err != nil {
		return fmt.Errorf("opening upload %s: %w", header.Filename, err)
	}
	defer f.Close()
	return fn(header.Filename, f)
}
