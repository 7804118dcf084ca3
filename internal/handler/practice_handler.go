package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/olehkravets/satzwerk/internal/models"
	"github.com/olehkravets/satzwerk/internal/service"
	appErrors "github.com/olehkravets/satzwerk/pkg/errors"
	"github.com/olehkravets/satzwerk/pkg/response"
)

// PracticeHandler exposes the practice session and grading endpoints.
type PracticeHandler struct {
	sessions *service.SessionService
	grading  *service.GradingService
}

// NewPracticeHandler creates a new handler.
func NewPracticeHandler(sessions *service.SessionService, grading *service.GradingService) *PracticeHandler {
	return &PracticeHandler{sessions: sessions, grading: grading}
}

// StartSession godoc
// @Summary Start today's practice session
// @Description Open today's session and assemble its sentence set; returns the existing session when one is already open
// @Tags Practice
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.StartSessionRequest false "Session options"
// @Success 201 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /practice/sessions [post]
func (h *PracticeHandler) StartSession(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.StartSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
			return
		}
	}

	res, err := h.sessions.Start(c.Request.Context(), claims.UserID, claims.Username, req.Topic)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, res, nil)
}

// TodaySession godoc
// @Summary Get today's open session
// @Tags Practice
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /practice/sessions/today [get]
func (h *PracticeHandler) TodaySession(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.sessions.Today(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// SubmitTranslations godoc
// @Summary Submit translations for grading
// @Description Admit a batch of translations; each item is graded as an independent background task
// @Tags Practice
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SubmitTranslationsRequest true "Translations"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /practice/translations [post]
func (h *PracticeHandler) SubmitTranslations(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.SubmitTranslationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	receipts, err := h.grading.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusAccepted, receipts, nil)
}

// Results godoc
// @Summary Get today's graded results
// @Tags Practice
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /practice/results [get]
func (h *PracticeHandler) Results(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	results, err := h.grading.Results(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, results, nil)
}

// CompleteSession godoc
// @Summary Complete today's session
// @Tags Practice
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /practice/sessions/complete [post]
func (h *PracticeHandler) CompleteSession(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.sessions.Complete(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Topics godoc
// @Summary List practice topics
// @Tags Practice
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /topics [get]
func (h *PracticeHandler) Topics(c *gin.Context) {
	topics, err := h.sessions.Topics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, topics, nil)
}
