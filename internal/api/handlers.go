package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"docnotes/internal/config"
	"docnotes/internal/models"
)

// ErrInvalidInput marks request errors that map to 400.
var ErrInvalidInput = errors.New("invalid input")

const (
	PromptForInput = "Please enter a question."
	pdfExtension   = ".pdf"
)

// Asker runs one question, with an optional document, through the assistant.
type Asker interface {
	Run(ctx context.Context, question string, doc *models.DocumentRef) (string, error)
}

// DocumentStore persists uploads for the duration of a request.
type DocumentStore interface {
	Save(filename string, r io.Reader) (*models.DocumentRef, error)
	Release(ref *models.DocumentRef)
}

// Handler wires HTTP routes to the assistant.
type Handler struct {
	asker          Asker
	store          DocumentStore
	staticDir      string
	requestTimeout time.Duration
}

// NewHandler constructs a Handler instance.
func NewHandler(asker Asker, store DocumentStore, cfg config.BasicConfig) *Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Handler{
		asker:          asker,
		store:          store,
		staticDir:      cfg.StaticDir,
		requestTimeout: timeout,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(RequestID(), cors.Default())
	router.POST("/ask", h.ask)
	router.GET("/", h.askSimple)
	router.GET("/health", h.health)
	if h.staticDir != "" {
		if info, err := os.Stat(h.staticDir); err == nil && info.IsDir() {
			router.Static("/static", h.staticDir)
		} else {
			log.Printf("static dir %s not found, /static disabled", h.staticDir)
		}
	}
}

func (h *Handler) ask(c *gin.Context) {
	question := c.PostForm("user_question")
	if strings.TrimSpace(question) == "" {
		writeError(c, fmt.Errorf("%w: user_question is required", ErrInvalidInput))
		return
	}

	var (
		doc         *models.DocumentRef
		pdfFilename *string
	)
	fh, err := c.FormFile("pdf_file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// question only
	case err != nil:
		writeError(c, fmt.Errorf("%w: read pdf_file: %v", ErrInvalidInput, err))
		return
	default:
		if err := validateUpload(fh.Filename); err != nil {
			writeError(c, err)
			return
		}
		src, err := fh.Open()
		if err != nil {
			writeError(c, fmt.Errorf("open upload: %w", err))
			return
		}
		doc, err = h.store.Save(fh.Filename, src)
		src.Close()
		if err != nil {
			log.Printf("save upload %s failed: %v", fh.Filename, err)
			writeError(c, err)
			return
		}
		defer h.store.Release(doc)
		name := fh.Filename
		pdfFilename = &name
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()
	answer, err := h.asker.Run(ctx, question, doc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AskResponse{
		Question:    question,
		PDFFilename: pdfFilename,
		Answer:      answer,
	})
}

func (h *Handler) askSimple(c *gin.Context) {
	question := c.Query("user_question")
	if question == "" {
		c.JSON(http.StatusOK, models.SimpleAnswer{Answer: PromptForInput})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()
	answer, err := h.asker.Run(ctx, question, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SimpleAnswer{Answer: answer})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, models.Health{Status: "healthy"})
}

// validateUpload accepts only names ending in ".pdf" (case-sensitive).
func validateUpload(filename string) error {
	if !strings.HasSuffix(filename, pdfExtension) {
		return fmt.Errorf("%w: only PDF files are allowed", ErrInvalidInput)
	}
	return nil
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	log.Printf("request %s failed: %v", c.GetString(requestIDKey), err)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "processing failed: " + err.Error()})
}
