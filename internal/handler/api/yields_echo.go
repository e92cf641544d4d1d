package api

import (
	"errors"

	models "HerdPulse/internal/domain/models"
	"HerdPulse/internal/middleware"
	"HerdPulse/internal/usecase"
	xhttp "HerdPulse/pkg/http"
	xlogger "HerdPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// YieldsEchoHandler is the write side: production records and subject labels.
type YieldsEchoHandler struct {
	logger *xlogger.Logger
	proc   *usecase.YieldProcessor
}

func NewYieldsEchoHandler(logger *xlogger.Logger, proc *usecase.YieldProcessor) *YieldsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &YieldsEchoHandler{logger: logger, proc: proc}
}

func (h *YieldsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/yields", h.Record)
	g.POST("/subjects", h.Label)
}

// Record answers 201 when the record is stored and 202 when it was queued on
// Kafka. A full publish buffer answers 503 so clients retry later.
func (h *YieldsEchoHandler) Record(c echo.Context) error {
	req := &models.YieldRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rec, err := h.proc.Record(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("record yield failed",
			xlogger.String("owner_id", req.OwnerID),
			xlogger.String("subject_id", req.SubjectID),
			xlogger.Error(err),
		)
		if errors.Is(err, middleware.ErrBufferFull) {
			return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("ingest backlog full, retry later").WithError(err))
		}
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not record yield").WithError(err))
	}
	if h.proc.Backend() == usecase.BackendKafka {
		return xhttp.AcceptedResponse(c, rec)
	}
	return xhttp.CreatedResponse(c, rec)
}

func (h *YieldsEchoHandler) Label(c echo.Context) error {
	req := &models.SubjectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, err := h.proc.LabelSubject(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("label subject failed", xlogger.String("subject_id", req.SubjectID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not label subject").WithError(err))
	}
	return xhttp.SuccessResponse(c, s)
}
