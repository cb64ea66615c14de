package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"FraudSight/internal/domain/repository"
	xhttp "FraudSight/pkg/http"
)

// Router combines the API handlers into one route registrar for the
// HTTP server wrapper.
type Router struct {
	handlers []xhttp.Handler
}

func NewRouter(handlers ...xhttp.Handler) *Router {
	return &Router{handlers: handlers}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}

// mapDomainErr translates domain sentinel errors into AppErrors so
// handlers stay free of status-code logic.
func mapDomainErr(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, repository.ErrModelNotFound),
		errors.Is(err, repository.ErrJobNotFound),
		errors.Is(err, repository.ErrEntryNotFound),
		errors.Is(err, repository.ErrDatasetNotFound):
		return xhttp.NotFoundError(err.Error())
	case errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, repository.ErrSchema):
		return xhttp.BadRequestError(err.Error())
	case errors.Is(err, repository.ErrJobTerminal):
		return xhttp.NewAppError("ERR_CONFLICT", "", err.Error(), http.StatusConflict)
	default:
		return xhttp.InternalError(err.Error())
	}
}
