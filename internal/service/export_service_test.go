package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/dialoger-export/internal/config"
	"github.com/segyhp/dialoger-export/internal/domain"
	"github.com/segyhp/dialoger-export/internal/mailer"
	"github.com/segyhp/dialoger-export/internal/metrics"
	"github.com/segyhp/dialoger-export/internal/report"
	"github.com/segyhp/dialoger-export/internal/repository"
	customError "github.com/segyhp/dialoger-export/pkg/errors"
	"github.com/segyhp/dialoger-export/tests/mocks"
)

var zurich = mustLoad("Europe/Zurich")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type deps struct {
	generator *mocks.MockGenerator
	renderer  *mocks.MockRenderer
	sender    *mocks.MockSender
	configs   *mocks.MockConfigRepository
	ledger    *mocks.MockLedger
	metrics   *metrics.Metrics
}

func newTestService(t *testing.T, withSender, withLedger bool) (*ExportService, *deps) {
	t.Helper()

	d := &deps{
		generator: &mocks.MockGenerator{},
		renderer:  &mocks.MockRenderer{},
		sender:    &mocks.MockSender{},
		configs:   &mocks.MockConfigRepository{},
		ledger:    &mocks.MockLedger{},
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	cfg := &config.Config{
		Report: config.ReportConfig{Timezone: "Europe/Zurich"},
		Mail: config.MailConfig{
			RecipientName: "Sonos",
			Signature:     "Sonos Dialoger-App",
			Timeout:       time.Second,
		},
	}

	var sender mailer.Sender
	if withSender {
		sender = d.sender
	}
	svc := NewExportService(d.generator, d.renderer, sender, d.configs, nil, d.metrics,
		slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
	if withLedger {
		svc.ledger = d.ledger
	}
	svc.now = func() time.Time { return time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC) }

	return svc, d
}

func workbookWithRows(n int) *report.Workbook {
	return &report.Workbook{Sheets: []*report.Sheet{
		{Name: report.AllPaymentsSheetName, Rows: make([]report.Row, n)},
		{Name: "Anna Muster"},
	}}
}

func TestBuildExport_Success(t *testing.T) {
	svc, d := newTestService(t, false, false)
	start := time.Date(2024, 3, 5, 0, 0, 0, 0, zurich)
	end := start.AddDate(0, 0, 1)
	wb := workbookWithRows(3)

	d.generator.On("Generate", mock.Anything, start, end).Return(wb, nil)
	d.renderer.On("Render", wb).Return([]byte("xlsx"), nil)

	export, err := svc.BuildExport(context.Background(), TriggerHTTP, start, end)

	require.NoError(t, err)
	assert.NotEmpty(t, export.RunID)
	assert.Equal(t, "export-5-3-2024.xlsx", export.Filename)
	assert.Equal(t, []byte("xlsx"), export.Content)
	assert.Equal(t, 2, export.Sheets)
	assert.Equal(t, 3, export.Rows)
	assert.Equal(t, 1.0, testutil.ToFloat64(d.metrics.Runs.WithLabelValues(TriggerHTTP, metrics.OutcomeSuccess)))
	assert.Equal(t, 3.0, testutil.ToFloat64(d.metrics.Rows))
	d.generator.AssertExpectations(t)
	d.renderer.AssertExpectations(t)
}

func TestBuildExport_Failures(t *testing.T) {
	start := time.Date(2024, 3, 5, 0, 0, 0, 0, zurich)
	end := start.AddDate(0, 0, 1)

	tests := []struct {
		name     string
		setup    func(d *deps)
		wantErr  error
		wantCode string
	}{
		{
			name: "query failure is passed through",
			setup: func(d *deps) {
				d.generator.On("Generate", mock.Anything, start, end).
					Return(nil, customError.WrapQueryFailure("payments", errors.New("down")))
			},
			wantErr:  customError.ErrQueryFailure,
			wantCode: customError.ErrCodeQueryFailure,
		},
		{
			name: "render failure",
			setup: func(d *deps) {
				wb := workbookWithRows(1)
				d.generator.On("Generate", mock.Anything, start, end).Return(wb, nil)
				d.renderer.On("Render", wb).Return(nil, errors.New("disk full"))
			},
			wantErr:  customError.ErrRenderFailure,
			wantCode: customError.ErrCodeRenderFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newTestService(t, false, false)
			tt.setup(d)

			export, err := svc.BuildExport(context.Background(), TriggerCLI, start, end)

			assert.Nil(t, export)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCode, customError.Code(err))
			assert.Equal(t, 1.0, testutil.ToFloat64(d.metrics.Runs.WithLabelValues(TriggerCLI, metrics.OutcomeFailure)))
		})
	}
}

func TestSendExport(t *testing.T) {
	export := &domain.Export{RunID: "run", Filename: "export-5-3-2024.xlsx", Content: []byte("xlsx")}

	svc, d := newTestService(t, true, false)
	d.configs.On("GetExportConfig", mock.Anything).Return(&domain.ExportConfig{Email: " admin@example.org "}, nil)
	d.sender.On("Send", mock.Anything, mock.MatchedBy(func(msg *mailer.Message) bool {
		return msg.ToEmail == "admin@example.org" &&
			msg.ToName == "Sonos" &&
			msg.Subject == "Auto-Export vom 6.3.2024" &&
			msg.Text == "Hallo Sonos\n\nAnbei der Auto-Export der Leistungen deiner DialogerInnen.\n\nSonos Dialoger-App" &&
			len(msg.Attachments) == 1 &&
			msg.Attachments[0].Filename == "export-5-3-2024.xlsx"
	})).Return(nil)

	recipient, err := svc.SendExport(context.Background(), export)

	require.NoError(t, err)
	assert.Equal(t, "admin@example.org", recipient)
	d.sender.AssertExpectations(t)
}

func TestSendExport_Failures(t *testing.T) {
	export := &domain.Export{RunID: "run", Filename: "export-5-3-2024.xlsx"}

	tests := []struct {
		name       string
		withSender bool
		setup      func(d *deps)
		wantErr    error
	}{
		{
			name:    "no mail transport",
			setup:   func(d *deps) {},
			wantErr: customError.ErrMissingConfiguration,
		},
		{
			name:       "config document missing",
			withSender: true,
			setup: func(d *deps) {
				d.configs.On("GetExportConfig", mock.Anything).Return(nil, repository.ErrExportConfigNotFound)
			},
			wantErr: customError.ErrMissingConfiguration,
		},
		{
			name:       "config without email",
			withSender: true,
			setup: func(d *deps) {
				d.configs.On("GetExportConfig", mock.Anything).Return(&domain.ExportConfig{}, nil)
			},
			wantErr: customError.ErrMissingConfiguration,
		},
		{
			name:       "config lookup fails",
			withSender: true,
			setup: func(d *deps) {
				d.configs.On("GetExportConfig", mock.Anything).Return(nil, errors.New("unavailable"))
			},
			wantErr: customError.ErrQueryFailure,
		},
		{
			name:       "transport fails",
			withSender: true,
			setup: func(d *deps) {
				d.configs.On("GetExportConfig", mock.Anything).Return(&domain.ExportConfig{Email: "admin@example.org"}, nil)
				d.sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("422 unprocessable"))
			},
			wantErr: customError.ErrDeliveryFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newTestService(t, tt.withSender, false)
			tt.setup(d)

			recipient, err := svc.SendExport(context.Background(), export)

			assert.Empty(t, recipient)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRunDailyExport(t *testing.T) {
	// 09:30 UTC on March 6th is 10:30 in Zurich; yesterday is March 5th
	now := time.Date(2024, 3, 6, 9, 30, 0, 0, time.UTC)
	start := time.Date(2024, 3, 5, 0, 0, 0, 0, zurich)
	end := time.Date(2024, 3, 6, 0, 0, 0, 0, zurich)
	sameInstant := func(want time.Time) any {
		return mock.MatchedBy(func(got time.Time) bool { return got.Equal(want) })
	}

	t.Run("sends yesterday once claimed", func(t *testing.T) {
		svc, d := newTestService(t, true, true)
		wb := workbookWithRows(2)
		d.ledger.On("Claim", mock.Anything, "2024-03-05").Return(true, nil)
		d.generator.On("Generate", mock.Anything, sameInstant(start), sameInstant(end)).Return(wb, nil)
		d.renderer.On("Render", wb).Return([]byte("xlsx"), nil)
		d.configs.On("GetExportConfig", mock.Anything).Return(&domain.ExportConfig{Email: "admin@example.org"}, nil)
		d.sender.On("Send", mock.Anything, mock.Anything).Return(nil)

		res, err := svc.RunDailyExport(context.Background(), now)

		require.NoError(t, err)
		assert.Equal(t, "admin@example.org", res.Recipient)
		assert.Equal(t, "export-5-3-2024.xlsx", res.Filename)
		assert.Equal(t, 2, res.Rows)
		d.ledger.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	})

	t.Run("skips a day already delivered", func(t *testing.T) {
		svc, d := newTestService(t, true, true)
		d.ledger.On("Claim", mock.Anything, "2024-03-05").Return(false, nil)

		res, err := svc.RunDailyExport(context.Background(), now)

		assert.Nil(t, res)
		assert.ErrorIs(t, err, customError.ErrAlreadyDelivered)
		assert.Equal(t, 1.0, testutil.ToFloat64(d.metrics.Runs.WithLabelValues(TriggerSchedule, metrics.OutcomeSkipped)))
		d.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("releases the claim when delivery fails", func(t *testing.T) {
		svc, d := newTestService(t, true, true)
		wb := workbookWithRows(0)
		d.ledger.On("Claim", mock.Anything, "2024-03-05").Return(true, nil)
		d.ledger.On("Release", mock.Anything, "2024-03-05").Return(nil)
		d.generator.On("Generate", mock.Anything, sameInstant(start), sameInstant(end)).Return(wb, nil)
		d.renderer.On("Render", wb).Return([]byte("xlsx"), nil)
		d.configs.On("GetExportConfig", mock.Anything).Return(&domain.ExportConfig{Email: "admin@example.org"}, nil)
		d.sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("timeout"))

		_, err := svc.RunDailyExport(context.Background(), now)

		assert.ErrorIs(t, err, customError.ErrDeliveryFailure)
		d.ledger.AssertExpectations(t)
	})

	t.Run("sends without a claim when the ledger is down", func(t *testing.T) {
		svc, d := newTestService(t, true, true)
		wb := workbookWithRows(1)
		d.ledger.On("Claim", mock.Anything, "2024-03-05").Return(false, errors.New("connection refused"))
		d.generator.On("Generate", mock.Anything, sameInstant(start), sameInstant(end)).Return(wb, nil)
		d.renderer.On("Render", wb).Return([]byte("xlsx"), nil)
		d.configs.On("GetExportConfig", mock.Anything).Return(&domain.ExportConfig{Email: "admin@example.org"}, nil)
		d.sender.On("Send", mock.Anything, mock.Anything).Return(nil)

		res, err := svc.RunDailyExport(context.Background(), now)

		require.NoError(t, err)
		assert.Equal(t, 1, res.Rows)
	})
}
