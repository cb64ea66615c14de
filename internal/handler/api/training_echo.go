package api

import (
	"github.com/labstack/echo/v4"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/domain/repository"
	"FraudSight/internal/training"
	xhttp "FraudSight/pkg/http"
	"FraudSight/pkg/logger"
)

// TrainingEchoHandler exposes the training orchestrator and model
// registry over HTTP.
type TrainingEchoHandler struct {
	log  *logger.Logger
	orch *training.Orchestrator
}

func NewTrainingEchoHandler(log *logger.Logger, orch *training.Orchestrator) *TrainingEchoHandler {
	return &TrainingEchoHandler{log: log, orch: orch}
}

func (h *TrainingEchoHandler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/api/v1")
	v1.POST("/training/jobs", h.createJob)
	v1.GET("/training/jobs", h.listJobs)
	v1.GET("/training/jobs/:id", h.getJob)
	v1.POST("/training/jobs/:id/cancel", h.cancelJob)
	v1.GET("/training/jobs/:id/stream", h.streamJob)
	v1.GET("/models", h.listModels)
	v1.POST("/models/:id/deploy", h.deployModel)
}

func (h *TrainingEchoHandler) createJob(c echo.Context) error {
	req := new(models.TrainingJobRequest)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	job, err := h.orch.Submit(c.Request().Context(), req)
	if err != nil {
		h.log.Warn("job submit failed", logger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainErr(err))
	}
	return xhttp.CreatedResponse(c, job)
}

func (h *TrainingEchoHandler) getJob(c echo.Context) error {
	job, err := h.orch.Status(c.Request().Context(), c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, mapDomainErr(err))
	}
	return xhttp.SuccessResponse(c, job)
}

func (h *TrainingEchoHandler) listJobs(c echo.Context) error {
	req := new(models.ListJobsRequest)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	jobs, total, err := h.orch.List(c.Request().Context(), repository.JobFilter{
		Status:    models.JobStatus(req.Status),
		DatasetID: req.DatasetID,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		return xhttp.AppErrorResponse(c, mapDomainErr(err))
	}
	return xhttp.ListResponse(c, jobs, total)
}

func (h *TrainingEchoHandler) cancelJob(c echo.Context) error {
	jobID := c.Param("id")
	if err := h.orch.Cancel(c.Request().Context(), jobID); err != nil {
		return xhttp.AppErrorResponse(c, mapDomainErr(err))
	}
	h.log.Info("job cancellation requested", logger.String("job_id", jobID))
	return xhttp.SuccessResponse(c, map[string]interface{}{"cancelled": true})
}

func (h *TrainingEchoHandler) listModels(c echo.Context) error {
	req := new(models.ListModelsRequest)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	entries, total, err := h.orch.Models(c.Request().Context(), repository.EntryFilter{
		Status: models.RegistryEntryStatus(req.Status),
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		return xhttp.AppErrorResponse(c, mapDomainErr(err))
	}
	return xhttp.ListResponse(c, entries, total)
}

func (h *TrainingEchoHandler) deployModel(c echo.Context) error {
	req := new(models.DeployRequest)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	modelID := c.Param("id")
	if err := h.orch.Deploy(c.Request().Context(), modelID, req.Config); err != nil {
		return xhttp.AppErrorResponse(c, mapDomainErr(err))
	}
	h.log.Info("model deploy requested", logger.String("model_id", modelID))
	return xhttp.SuccessResponse(c, map[string]interface{}{"deployed": true})
}
