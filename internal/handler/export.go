package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/segyhp/dialoger-export/internal/domain"
	"github.com/segyhp/dialoger-export/internal/mailer"
	"github.com/segyhp/dialoger-export/internal/service"
	customError "github.com/segyhp/dialoger-export/pkg/errors"
	"github.com/segyhp/dialoger-export/pkg/response"
	"github.com/segyhp/dialoger-export/pkg/utils"
)

// ExportService is the part of service.ExportService the handlers use
type ExportService interface {
	Location() *time.Location
	BuildExport(ctx context.Context, trigger string, start, end time.Time) (*domain.Export, error)
	EmailExport(ctx context.Context, trigger string, start, end time.Time) (*domain.ExportResponse, error)
}

type ExportHandler struct {
	service   ExportService
	validator *validator.Validate
}

func NewExportHandler(service ExportService) *ExportHandler {
	return &ExportHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Download streams the xlsx export of the requested day range
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.decodeRange(w, r)
	if !ok {
		return
	}

	export, err := h.service.BuildExport(r.Context(), service.TriggerHTTP, start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	response.File(w, export.Filename, mailer.XLSXContentType, export.Content)
}

// Email sends the export of the requested day range to the configured address
func (h *ExportHandler) Email(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.decodeRange(w, r)
	if !ok {
		return
	}

	res, err := h.service.EmailExport(r.Context(), service.TriggerHTTP, start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, res)
}

func (h *ExportHandler) decodeRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	var request domain.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return time.Time{}, time.Time{}, false
	}

	if err := h.validator.Struct(request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return time.Time{}, time.Time{}, false
	}

	loc := h.service.Location()
	start, err := utils.ParseDay(request.StartDate, loc)
	if err != nil {
		writeError(w, customError.WrapUnparsableDate(request.StartDate, err))
		return time.Time{}, time.Time{}, false
	}
	end, err := utils.ParseDay(request.EndDate, loc)
	if err != nil {
		writeError(w, customError.WrapUnparsableDate(request.EndDate, err))
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}

// writeError maps business errors to HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		response.InternalServerError(w, "Export failed", err)
		return
	}

	switch be.Code {
	case customError.ErrCodeInvalidDateRange:
		response.BadRequest(w, be.Message, err)
	case customError.ErrCodeAlreadyDelivered:
		response.Error(w, http.StatusConflict, be.Message, err)
	case customError.ErrCodeMissingConfiguration:
		response.Error(w, http.StatusServiceUnavailable, be.Message, err)
	case customError.ErrCodeQueryFailure, customError.ErrCodeDeliveryFailure:
		response.Error(w, http.StatusBadGateway, be.Message, err)
	default:
		response.InternalServerError(w, be.Message, err)
	}
}
