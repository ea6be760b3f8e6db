package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/vehicle.detect/internal/config"
	"github.com/banshee-data/vehicle.detect/internal/db"
)

func (a *app) handleHistory(ctx context.Context, args []string) int {
	fs := a.newFlagSet("history")
	limit := fs.Int("limit", 10, "Number of rows to show per table")
	configPath := fs.String("config", config.DefaultConfigPath, "Configuration file path")
	dbPath := fs.String("db", "", "History database path (overrides config)")
	serve := fs.String("serve", "", "Serve the history debug pages on this address (e.g. localhost:8090)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, ok := a.loadConfig(fs, *configPath)
	if !ok {
		return 1
	}
	config.Override(&cfg.LedgerPath, *dbPath)
	path := cfg.GetLedgerPath()
	if path == "" {
		fmt.Fprintln(a.stderr, "History is disabled (ledger_path is empty)")
		return 1
	}

	ledger, err := db.OpenLedger(path)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to open history: %v\n", err)
		return 1
	}
	defer ledger.Close()

	if *serve != "" {
		if err := a.serveHistory(ctx, ledger, *serve); err != nil {
			fmt.Fprintf(a.stderr, "History server failed: %v\n", err)
			return 1
		}
		return 0
	}

	launches, err := ledger.RecentLaunches(*limit)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to read launches: %v\n", err)
		return 1
	}
	acquisitions, err := ledger.RecentAcquisitions(*limit)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to read downloads: %v\n", err)
		return 1
	}

	fmt.Fprintln(a.stdout, "Launches:")
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tMODE\tSOURCE\tWEIGHTS\tEXIT")
	for _, l := range launches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.StartedAt.Local().Format(time.DateTime), shortID(l.RunID), l.Mode, l.Source, l.WeightsPath, launchStatus(l))
	}
	tw.Flush()

	fmt.Fprintln(a.stdout, "\nDownloads:")
	tw = tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tMODEL\tSTATUS\tBYTES\tDEST\tERROR")
	for _, acq := range acquisitions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			acq.CreatedAt.Local().Format(time.DateTime), acq.Model, acq.Status, acq.Bytes, acq.DestPath, acq.Error)
	}
	tw.Flush()
	return 0
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func launchStatus(l db.Launch) string {
	switch {
	case l.DryRun:
		return "dry-run"
	case l.Interrupted:
		return "interrupted"
	case l.ExitCode == nil:
		return "running"
	default:
		return fmt.Sprint(*l.ExitCode)
	}
}

// serveHistory runs the ledger debug pages until ctx is cancelled.
func (a *app) serveHistory(ctx context.Context, ledger *db.DB, addr string) error {
	mux := http.NewServeMux()
	if err := ledger.AttachAdminRoutes(mux); err != nil {
		return err
	}
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	fmt.Fprintf(a.stdout, "Serving history on http://%s/debug/ (Ctrl+C to stop)\n", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
