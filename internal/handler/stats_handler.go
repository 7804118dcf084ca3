package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/olehkravets/satzwerk/internal/service"
	appErrors "github.com/olehkravets/satzwerk/pkg/errors"
	"github.com/olehkravets/satzwerk/pkg/response"
)

// StatsHandler exposes the learner progress endpoints.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler creates a new handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Me godoc
// @Summary Get my progress stats
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/me [get]
func (h *StatsHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stats, err := h.stats.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}

// Weekly godoc
// @Summary Get this week's summary
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/weekly [get]
func (h *StatsHandler) Weekly(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.stats.Weekly(c.Request.Context(), claims.UserID, time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// ExportWeekly godoc
// @Summary Export this week's summary
// @Description Render the weekly summary as csv or pdf and return a signed download link
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(pdf)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /stats/weekly/export [get]
func (h *StatsHandler) ExportWeekly(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.stats.Export(c.Request.Context(), claims.UserID, time.Now(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// DownloadWeekly godoc
// @Summary Download an exported summary
// @Tags Stats
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /stats/weekly/download [get]
func (h *StatsHandler) DownloadWeekly(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}

	file, err := h.stats.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.FileAttachment(file.Name(), "weekly-summary"+fileExtension(file.Name()))
}

func fileExtension(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/'; i-- {
		if name[i] == '.' {
			return name[i:]
		}
	}
	return ""
}
