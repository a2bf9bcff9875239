package cli

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sheetdesk/sheetdesk/internal/config"
	"github.com/sheetdesk/sheetdesk/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP command surface",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, configPath)
		if err != nil {
			return err
		}

		server := httpapi.NewServer(httpapi.Services{
			Branches:      a.branches,
			Tasks:         a.tasks,
			Notifications: a.notifications,
			Workload:      a.workload,
			Metrics:       a.metrics,
		}, httpapi.ServerConfig{
			APIToken:           a.cfg.APIToken,
			NotifyPollInterval: a.cfg.NotifyPollInterval,
			ExportsDir:         a.cfg.ExportsDir,
		})

		// Token and poll interval follow the config file without a restart.
		// The transport keeps its boot-time settings; those need a restart.
		err = config.Watch(ctx, configPath, func(cfg config.Config) {
			log.Printf("config reloaded from %s", configPath)
			server.UpdateConfig(httpapi.ServerConfig{
				APIToken:           cfg.APIToken,
				NotifyPollInterval: cfg.NotifyPollInterval,
				ExportsDir:         cfg.ExportsDir,
			})
		})
		if err != nil {
			log.Printf("config watch disabled: %v", err)
		}

		httpServer := &http.Server{
			Addr:              a.cfg.ListenAddr,
			Handler:           server,
			ReadHeaderTimeout: 10 * time.Second,
		}
		log.Printf("sheetdesk listening on %s (spreadsheet %s)", a.cfg.ListenAddr, a.cfg.SpreadsheetID)
		return httpServer.ListenAndServe()
	},
}
