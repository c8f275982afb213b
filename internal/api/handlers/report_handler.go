// internal/api/handlers/report_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/salesreport/internal/domain"
	"github.com/andresuchdata/salesreport/internal/report"
	"github.com/andresuchdata/salesreport/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) parseQuery(c *gin.Context) (service.ViewQuery, error) {
	var q service.ViewQuery

	start, err := report.ParseDay(strings.TrimSpace(c.Query("start")))
	if err != nil {
		return q, fmt.Errorf("invalid start date, expected YYYY-MM-DD")
	}
	end, err := report.ParseDay(strings.TrimSpace(c.Query("end")))
	if err != nil {
		return q, fmt.Errorf("invalid end date, expected YYYY-MM-DD")
	}
	q.Start, q.End = start, end

	q.Search = c.Query("q")

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("invalid limit")
		}
		q.Limit = limit
	}

	return q, nil
}

// Upload ingests a multipart "file" field.
func (h *ReportHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to open uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer file.Close()

	ds, err := h.service.IngestFile(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, datasetResponse(ds, domain.SourceFile))
}

// Refresh reloads the published feed.
func (h *ReportHandler) Refresh(c *gin.Context) {
	ds, err := h.service.RefreshRemote(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, datasetResponse(ds, domain.SourceRemote))
}

type objectRequest struct {
	Key string `json:"key" binding:"required"`
}

// IngestObject ingests a file from object storage.
func (h *ReportHandler) IngestObject(c *gin.Context) {
	var req objectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	ds, err := h.service.IngestObject(c.Request.Context(), req.Key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, datasetResponse(ds, domain.SourceFile))
}

// ListObjects lists ingestible files in object storage.
func (h *ReportHandler) ListObjects(c *gin.Context) {
	objects, err := h.service.ListObjects(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"objects": objects})
}

// ListDriveFiles lists ingestible files in a Google Drive folder.
func (h *ReportHandler) ListDriveFiles(c *gin.Context) {
	files, err := h.service.ListDriveFiles(c.Request.Context(), c.Query("folder_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

type driveRequest struct {
	FileID string `json:"file_id" binding:"required"`
}

// IngestDrive ingests a Google Drive file.
func (h *ReportHandler) IngestDrive(c *gin.Context) {
	var req driveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_id is required"})
		return
	}

	ds, err := h.service.IngestDriveFile(c.Request.Context(), req.FileID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, datasetResponse(ds, domain.SourceFile))
}

// Reset clears the active dataset and persisted state.
func (h *ReportHandler) Reset(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context()); err != nil {
		if !errors.Is(err, domain.ErrRemoteFetch) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "reset",
			"source":  h.service.Active().Kind().String(),
			"warning": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "reset",
		"source": h.service.Active().Kind().String(),
	})
}

func (h *ReportHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReportHandler) GetDateRange(c *gin.Context) {
	rng, err := h.service.DateRange()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rng)
}

func (h *ReportHandler) GetCustomers(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	body, err := h.service.Customers(q)
	writeJSON(c, body, err)
}

func (h *ReportHandler) GetProducts(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	body, err := h.service.Products(q)
	writeJSON(c, body, err)
}

func (h *ReportHandler) GetPromotions(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	body, err := h.service.Promotions(q)
	writeJSON(c, body, err)
}

func (h *ReportHandler) GetBranches(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	body, err := h.service.Branches(q)
	writeJSON(c, body, err)
}

func (h *ReportHandler) GetStockiestBranches(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	body, err := h.service.StockiestBranches(q)
	writeJSON(c, body, err)
}

func (h *ReportHandler) GetDaily(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	all := c.Query("branches") == "all"
	body, err := h.service.Daily(q, all)
	writeJSON(c, body, err)
}

func (h *ReportHandler) GetPurchaseTypes(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	body, err := h.service.PurchaseTypes(q)
	writeJSON(c, body, err)
}

func (h *ReportHandler) query(c *gin.Context) (service.ViewQuery, bool) {
	q, err := h.parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return q, false
	}
	return q, true
}

func writeJSON(c *gin.Context, body any, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var schemaErr *domain.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("source rejected")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "missing": schemaErr.Missing})
		return
	case errors.Is(err, domain.ErrRemoteFetch):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrUnsupportedFormat):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrReadFailure):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoActiveData):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSourceDisabled):
		status = http.StatusServiceUnavailable
	}

	switch {
	case service.IsClientError(err):
		log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("source rejected")
	case status >= http.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func datasetResponse(ds *domain.Dataset, kind domain.SourceKind) gin.H {
	return gin.H{
		"id":         ds.ID,
		"source":     kind.String(),
		"fileName":   ds.FileName,
		"ingestedAt": ds.IngestedAt,
		"dateRange": gin.H{
			"start": report.FormatDate(ds.DateRange.Start),
			"end":   report.FormatDate(ds.DateRange.End),
		},
		"purchaseCount": ds.Aggregates.PurchaseCount,
	}
}
