package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/breadlens/backend/internal/domain"
	"github.com/breadlens/backend/internal/infrastructure/logger"
	"github.com/breadlens/backend/internal/infrastructure/report"
	"github.com/breadlens/backend/internal/infrastructure/storage/snapshot"
	"github.com/breadlens/backend/internal/usecase"
)

const (
	maxUploadBytes   = 20 << 20
	defaultListLimit = 20
	maxListLimit     = 100
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AnalysisRunner runs and retrieves analyses
type AnalysisRunner interface {
	Analyze(ctx context.Context, records []domain.RawRecord) (*domain.AnalysisResult, error)
	Latest(ctx context.Context) (*domain.AnalysisResult, error)
	Get(ctx context.Context, runID string) (*domain.AnalysisResult, error)
	List(ctx context.Context, limit int) ([]domain.AnalysisSummary, error)
}

// ScrapeRunner runs a scrape across all platforms
type ScrapeRunner interface {
	Run(ctx context.Context) (*usecase.ScrapeReport, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analysis AnalysisRunner
	scraper  ScrapeRunner
	log      logger.Logger
}

// NewHandler creates a new HTTP handler. Endpoints whose service is nil
// answer 501.
func NewHandler(analysis AnalysisRunner, scraper ScrapeRunner, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		analysis: analysis,
		scraper:  scraper,
		log:      log,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "breadlens-backend",
		"version": "1.0.0",
	})
}

// CreateAnalysis analyzes the uploaded listings. The body is either a combined
// snapshot document (JSON) or a flattened export (text/csv).
func (h *Handler) CreateAnalysis(c *gin.Context) {
	if h.analysis == nil {
		notImplemented(c, "analysis")
		return
	}

	records, err := readRecords(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.analysis.Analyze(c.Request.Context(), records)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// readRecords decodes the request body into raw records
func readRecords(c *gin.Context) ([]domain.RawRecord, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrInvalidRequest, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", domain.ErrInvalidRequest)
	}

	if strings.HasPrefix(c.ContentType(), "text/csv") {
		return snapshot.ReadCSV(bytes.NewReader(body))
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	if snap.Platforms == nil {
		return nil, fmt.Errorf("%w: body has no platforms section", domain.ErrInvalidInput)
	}
	return snap.Flatten(), nil
}

// ListAnalyses returns summaries of recent runs
func (h *Handler) ListAnalyses(c *gin.Context) {
	if h.analysis == nil {
		notImplemented(c, "analysis")
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(c, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidRequest))
			return
		}
		limit = min(n, maxListLimit)
	}

	summaries, err := h.analysis.List(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if summaries == nil {
		summaries = []domain.AnalysisSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"analyses": summaries})
}

// LatestAnalysis returns the most recent run
func (h *Handler) LatestAnalysis(c *gin.Context) {
	if h.analysis == nil {
		notImplemented(c, "analysis")
		return
	}

	result, err := h.analysis.Latest(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAnalysis returns a run by id
func (h *Handler) GetAnalysis(c *gin.Context) {
	if h.analysis == nil {
		notImplemented(c, "analysis")
		return
	}

	result, err := h.analysis.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportAnalysis streams a run as an xlsx workbook
func (h *Handler) ExportAnalysis(c *gin.Context) {
	if h.analysis == nil {
		notImplemented(c, "analysis")
		return
	}

	result, err := h.analysis.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, result); err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.WorkbookFileName(result)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ScrapeResponse is the outcome of a triggered scrape
type ScrapeResponse struct {
	ScrapingTimestamp string                   `json:"scrapingTimestamp"`
	TotalProducts     int                      `json:"totalProducts"`
	Platforms         []domain.PlatformSummary `json:"platforms"`
	Failures          map[string]string        `json:"failures,omitempty"`
	SnapshotPath      string                   `json:"snapshotPath,omitempty"`
	AnalysisID        string                   `json:"analysisId,omitempty"`
}

// TriggerScrape scrapes every platform and, unless analyze=false, analyzes
// the fresh snapshot
func (h *Handler) TriggerScrape(c *gin.Context) {
	if h.scraper == nil {
		notImplemented(c, "scraping")
		return
	}

	ctx := c.Request.Context()
	rep, err := h.scraper.Run(ctx)
	if err != nil && rep == nil {
		h.writeError(c, err)
		return
	}
	if err != nil {
		h.log.Warn("snapshot not saved", logger.Error(err))
	}

	resp := ScrapeResponse{
		ScrapingTimestamp: rep.Snapshot.ScrapingSession.ScrapingTimestamp,
		TotalProducts:     rep.Snapshot.ScrapingSession.TotalProducts,
		Platforms:         usecase.SummarizeSnapshot(rep.Snapshot),
		SnapshotPath:      rep.CombinedPath,
	}
	if len(rep.Failures) > 0 {
		resp.Failures = make(map[string]string, len(rep.Failures))
		for p, ferr := range rep.Failures {
			resp.Failures[string(p)] = ferr.Error()
		}
	}

	if h.analysis != nil && c.DefaultQuery("analyze", "true") != "false" && resp.TotalProducts > 0 {
		result, err := h.analysis.Analyze(ctx, rep.Snapshot.Flatten())
		if err != nil {
			h.writeError(c, err)
			return
		}
		resp.AnalysisID = result.RunID
	}

	c.JSON(http.StatusOK, resp)
}

// writeError maps domain errors onto HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrNoRecords),
		errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAnalysisNotFound),
		errors.Is(err, domain.ErrSnapshotNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		h.log.Error("request failed", logger.String("path", c.FullPath()), logger.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func notImplemented(c *gin.Context, feature string) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": feature + " service not configured",
	})
}

// requestTimeout bounds long-running handlers such as scraping
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
