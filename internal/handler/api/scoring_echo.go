package api

import (
	"github.com/labstack/echo/v4"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/scoring"
	xhttp "FraudSight/pkg/http"
	"FraudSight/pkg/logger"
)

// ScoringEchoHandler exposes the scoring engine over HTTP.
type ScoringEchoHandler struct {
	log    *logger.Logger
	engine *scoring.Engine
}

func NewScoringEchoHandler(log *logger.Logger, engine *scoring.Engine) *ScoringEchoHandler {
	return &ScoringEchoHandler{log: log, engine: engine}
}

func (h *ScoringEchoHandler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/api/v1")
	v1.POST("/score", h.score)
	v1.GET("/health", h.health)
	v1.GET("/models/info", h.modelsInfo)
	v1.POST("/models/reload", h.reload)
	v1.GET("/features/info", h.featuresInfo)
}

func (h *ScoringEchoHandler) score(c echo.Context) error {
	req := new(models.ScoreRequest)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	result, err := h.engine.Score(c.Request().Context(), req)
	if err != nil {
		h.log.Warn("scoring failed", logger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainErr(err))
	}
	return xhttp.SuccessResponse(c, result)
}

func (h *ScoringEchoHandler) health(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.Health())
}

func (h *ScoringEchoHandler) modelsInfo(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.Info())
}

func (h *ScoringEchoHandler) reload(c echo.Context) error {
	req := new(models.ReloadRequest)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report := h.engine.Reload(req.ModelVersion)
	h.log.Info("model reload requested",
		logger.String("version", req.ModelVersion),
		logger.Bool("success", report.Success))
	return xhttp.SuccessResponse(c, report)
}

func (h *ScoringEchoHandler) featuresInfo(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.FeatureInfo())
}
