package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prop-ie/snag-api/internal/dto"
	"github.com/prop-ie/snag-api/internal/middleware"
	"github.com/prop-ie/snag-api/internal/service"
	appErrors "github.com/prop-ie/snag-api/pkg/errors"
	"github.com/prop-ie/snag-api/pkg/response"
)

type reportService interface {
	Generate(ctx context.Context, listID string, req dto.SnagReportRequest, actor service.Actor) (*dto.SnagReportResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes snag report exports.
type ReportHandler struct {
	reports reportService
	logger  *zap.Logger
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{reports: reports, logger: logger}
}

// Generate godoc
// @Summary Render a snag list report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Snag list ID"
// @Param payload body dto.SnagReportRequest true "Report format"
// @Success 201 {object} response.Envelope
// @Router /snag-lists/{id}/exports [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	var req dto.SnagReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.reports.Generate(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download a rendered report through its signed link
// @Tags Reports
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}
	download, err := h.reports.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.Body.Close()

	middleware.SetAuditResource(c, download.ID)
	c.Header("Content-Type", download.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	if download.SizeBytes > 0 {
		c.Header("Content-Length", strconv.FormatInt(download.SizeBytes, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, download.Body); err != nil {
		h.logger.Warn("report download interrupted", zap.String("export_id", download.ID), zap.Error(err))
	}
}
