package backend

import (
	"context"
	"fmt"
	"log/slog"

	"portalunk/internal/amqp"
	"portalunk/internal/blob"
	"portalunk/internal/config"
	"portalunk/internal/sheets"
	gsheet "portalunk/internal/sheets/google"
	sheetsmem "portalunk/internal/sheets/memory"
	"portalunk/internal/store"
)

// NewPublisher connects to the broker when AMQP_URL is set. Without a URL,
// or when the broker is unreachable, finance events are dropped through a
// NopPublisher and the returned cleanup is a no-op.
func NewPublisher(ctx context.Context, cfg *config.Config) (amqp.Publisher, CleanupFunc) {
	if cfg.AMQPURL == "" {
		slog.InfoContext(ctx, "AMQP disabled, finance events will not be published")
		return amqp.NopPublisher{}, func() error { return nil }
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.WarnContext(ctx, "Failed to initialize AMQP client, continuing without publishing", "error", err)
		return amqp.NopPublisher{}, func() error { return nil }
	}
	slog.InfoContext(ctx, "Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client, client.Close
}

// NewBlobStore returns the payment proof store selected by BLOB_BACKEND.
func NewBlobStore(ctx context.Context, cfg *config.Config) (store.BlobStore, error) {
	switch cfg.BlobBackend {
	case "gcs":
		creds, err := cfg.GoogleCredentials()
		if err != nil {
			return nil, err
		}
		s, err := blob.NewGCSStore(ctx, creds)
		if err != nil {
			return nil, fmt.Errorf("init gcs blob store: %w", err)
		}
		return s, nil
	case "local", "":
		return blob.NewLocalStore(cfg.BlobDir, cfg.BlobBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported blob backend: %s", cfg.BlobBackend)
	}
}

// NewReportWriter returns the Google Sheets exporter when a spreadsheet is
// configured, else an in-memory writer.
func NewReportWriter(ctx context.Context, cfg *config.Config) (sheets.ReportWriter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		slog.InfoContext(ctx, "No spreadsheet configured, revenue reports kept in memory")
		return sheetsmem.New(), nil
	}
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		return nil, err
	}
	cli, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.ReportSheetName, creds)
	if err != nil {
		return nil, fmt.Errorf("init Google Sheets client: %w", err)
	}
	slog.InfoContext(ctx, "Initialized Google Sheets report writer",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.ReportSheetName)
	return cli, nil
}
