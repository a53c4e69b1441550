package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/dialoger-export/internal/config"
	"github.com/segyhp/dialoger-export/internal/domain"
	"github.com/segyhp/dialoger-export/internal/ledger"
	"github.com/segyhp/dialoger-export/internal/mailer"
	"github.com/segyhp/dialoger-export/internal/metrics"
	"github.com/segyhp/dialoger-export/internal/report"
	"github.com/segyhp/dialoger-export/internal/repository"
	customError "github.com/segyhp/dialoger-export/pkg/errors"
	"github.com/segyhp/dialoger-export/pkg/utils"
)

// Triggers label how an export run was started
const (
	TriggerSchedule = "schedule"
	TriggerHTTP     = "http"
	TriggerCLI      = "cli"
)

const mailBody = "Hallo %s\n\nAnbei der Auto-Export der Leistungen deiner DialogerInnen.\n\n%s"

// Generator builds the workbook for a day range
type Generator interface {
	Generate(ctx context.Context, start, end time.Time) (*report.Workbook, error)
}

// Renderer serializes a workbook
type Renderer interface {
	Render(wb *report.Workbook) ([]byte, error)
}

type ExportService struct {
	generator  Generator
	renderer   Renderer
	mailer     mailer.Sender
	configRepo repository.ConfigRepository
	ledger     ledger.Ledger
	metrics    *metrics.Metrics
	logger     *slog.Logger
	config     *config.Config
	loc        *time.Location
	now        func() time.Time
}

// NewExportService wires the export pipeline. sender and claims may be nil:
// without a sender exports can only be downloaded, without claims the daily
// export is not deduplicated.
func NewExportService(
	generator Generator,
	renderer Renderer,
	sender mailer.Sender,
	configRepo repository.ConfigRepository,
	claims ledger.Ledger,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg *config.Config,
) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		generator:  generator,
		renderer:   renderer,
		mailer:     sender,
		configRepo: configRepo,
		ledger:     claims,
		metrics:    m,
		logger:     logger,
		config:     cfg,
		loc:        cfg.ReportLocation(),
		now:        time.Now,
	}
}

// Location returns the time zone export days are computed in
func (s *ExportService) Location() *time.Location {
	return s.loc
}

// BuildExport generates and renders the workbook for [start, end)
func (s *ExportService) BuildExport(ctx context.Context, trigger string, start, end time.Time) (*domain.Export, error) {
	runID := uuid.New().String()
	began := s.now()
	log := s.logger.With("run_id", runID, "trigger", trigger,
		"start", utils.FormatDay(start), "end", utils.FormatDay(end))

	log.InfoContext(ctx, "generating export")

	wb, err := s.generator.Generate(ctx, start, end)
	if err != nil {
		log.ErrorContext(ctx, "export generation failed", "error", err)
		s.metrics.ObserveRun(trigger, metrics.OutcomeFailure, s.now().Sub(began))
		return nil, err
	}

	content, err := s.renderer.Render(wb)
	if err != nil {
		log.ErrorContext(ctx, "export rendering failed", "error", err)
		s.metrics.ObserveRun(trigger, metrics.OutcomeFailure, s.now().Sub(began))
		return nil, customError.WrapRenderFailure(err)
	}

	export := &domain.Export{
		RunID:    runID,
		Start:    start,
		End:      end,
		Filename: utils.AttachmentName(start, end),
		Content:  content,
		Sheets:   len(wb.Sheets),
	}
	if len(wb.Sheets) > 0 {
		export.Rows = len(wb.Sheets[0].Rows)
	}

	s.metrics.ObserveRun(trigger, metrics.OutcomeSuccess, s.now().Sub(began))
	s.metrics.SetRows(export.Rows)
	log.InfoContext(ctx, "export generated",
		"sheets", export.Sheets,
		"rows", export.Rows,
		"bytes", len(content))

	return export, nil
}

// SendExport emails an export to the address stored in the export config and
// returns that address
func (s *ExportService) SendExport(ctx context.Context, export *domain.Export) (string, error) {
	if s.mailer == nil {
		return "", customError.WrapMissingConfiguration("MAILERSEND_API_KEY", nil)
	}

	exportConfig, err := s.configRepo.GetExportConfig(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrExportConfigNotFound) {
			return "", customError.WrapMissingConfiguration("config/autoexport", err)
		}
		return "", customError.WrapQueryFailure("export config", err)
	}
	recipient := strings.TrimSpace(exportConfig.Email)
	if recipient == "" {
		return "", customError.WrapMissingConfiguration("config/autoexport email", nil)
	}

	msg := &mailer.Message{
		ToEmail: recipient,
		ToName:  s.config.Mail.RecipientName,
		Subject: "Auto-Export vom " + utils.FormatSwissDate(s.now().In(s.Location())),
		Text:    fmt.Sprintf(mailBody, s.config.Mail.RecipientName, s.config.Mail.Signature),
		Attachments: []mailer.Attachment{
			{Filename: export.Filename, Content: export.Content},
		},
	}

	sendCtx := ctx
	if s.config.Mail.Timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.config.Mail.Timeout)
		defer cancel()
	}

	if err := s.mailer.Send(sendCtx, msg); err != nil {
		s.logger.ErrorContext(ctx, "export delivery failed",
			"run_id", export.RunID, "recipient", recipient, "error", err)
		return "", customError.WrapDeliveryFailure(recipient, err)
	}

	s.logger.InfoContext(ctx, "export delivered",
		"run_id", export.RunID, "recipient", recipient, "filename", export.Filename)

	return recipient, nil
}

// EmailExport builds the export for [start, end) and sends it
func (s *ExportService) EmailExport(ctx context.Context, trigger string, start, end time.Time) (*domain.ExportResponse, error) {
	export, err := s.BuildExport(ctx, trigger, start, end)
	if err != nil {
		return nil, err
	}

	recipient, err := s.SendExport(ctx, export)
	if err != nil {
		return nil, err
	}

	return export.Response(recipient), nil
}

// RunDailyExport emails the payments of the day before now. A day already
// claimed in the ledger returns an ALREADY_DELIVERED error; the claim is
// released again when the run fails so a later run can retry.
func (s *ExportService) RunDailyExport(ctx context.Context, now time.Time) (*domain.ExportResponse, error) {
	start, end := utils.PreviousDay(now, s.Location())
	day := utils.FormatDay(start)

	claimed := false
	if s.ledger != nil {
		ok, err := s.ledger.Claim(ctx, day)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "export ledger unavailable, sending without claim", "day", day, "error", err)
		case !ok:
			s.metrics.ObserveRun(TriggerSchedule, metrics.OutcomeSkipped, 0)
			return nil, customError.WrapAlreadyDelivered(day)
		default:
			claimed = true
		}
	}

	res, err := s.EmailExport(ctx, TriggerSchedule, start, end)
	if err != nil {
		if claimed {
			// the run context may already be cancelled
			if relErr := s.ledger.Release(context.WithoutCancel(ctx), day); relErr != nil {
				s.logger.WarnContext(ctx, "releasing export claim failed", "day", day, "error", relErr)
			}
		}
		return nil, err
	}

	return res, nil
}
