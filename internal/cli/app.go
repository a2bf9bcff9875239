package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sheetdesk/sheetdesk/internal/config"
	"github.com/sheetdesk/sheetdesk/internal/rowstore"
	"github.com/sheetdesk/sheetdesk/internal/service"
	"github.com/sheetdesk/sheetdesk/internal/sheets"
)

// app wires config -> transport -> row store -> services once per
// invocation. Services are cheap: all state lives in the remote sheet.
type app struct {
	cfg           config.Config
	branches      *service.BranchService
	tasks         *service.TaskService
	notifications *service.NotificationService
	workload      *service.WorkloadService
	metrics       *service.MetricsService
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	tokenProvider, err := buildTokenProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := sheets.NewClient(sheets.ClientOptions{
		BaseURL:       cfg.SheetsBaseURL,
		SpreadsheetID: cfg.SpreadsheetID,
		TokenProvider: tokenProvider,
		UserAgent:     "sheetdesk",
		MaxRetries:    cfg.MaxRetries,
		BaseDelay:     cfg.RetryDelay,
	})
	store := rowstore.New(client)

	return &app{
		cfg:           cfg,
		branches:      service.NewBranchService(store),
		tasks:         service.NewTaskService(store),
		notifications: service.NewNotificationService(store),
		workload:      service.NewWorkloadService(store),
		metrics:       service.NewMetricsService(store),
	}, nil
}

// buildTokenProvider prefers an explicit access token from the environment
// (local development, proxies) and falls back to the service-account key.
func buildTokenProvider(ctx context.Context, cfg config.Config) (sheets.AccessTokenProvider, error) {
	if token := os.Getenv("SHEETDESK_ACCESS_TOKEN"); token != "" {
		return sheets.StaticTokenProvider(token), nil
	}
	provider, err := sheets.ServiceAccountTokenProvider(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("service account auth: %w", err)
	}
	return provider, nil
}
