package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/strata/pkg/log"
	"github.com/cuemby/strata/pkg/metrics"
	"github.com/cuemby/strata/pkg/store"
	"github.com/cuemby/strata/pkg/syncserver"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve COLLECTION...",
	Short: "Serve one or more collections over the sync wire protocol",
	Long: `Start the reference sync server (pkg/syncserver) for the given
collections, plus /metrics, /health, and /ready endpoints.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		engines := make(map[string]*store.Engine, len(args))
		for _, collection := range args {
			engine, err := openEngine(collection)
			if err != nil {
				return err
			}
			engines[collection] = engine
		}

		metrics.SetVersion(Version)
		metrics.RegisterComponent("blob", true, cfg.BlobBackend)

		// Per-collection readiness (RegisterCollectionHealth) is driven by
		// the Collector's own poll loop rather than registered statically
		// here, so a collection only reads ready once its first heartbeat
		// lands, and stays ready only while the Collector keeps ticking.
		collector := metrics.NewCollector(engines)
		collector.Start(15 * time.Second)
		defer collector.Stop()

		srv := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: syncserver.New(engines),
		}

		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
		log.Logger.Info().Str("addr", cfg.ListenAddr).Int("collections", len(engines)).Msg("strata serve listening")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Info("shutting down")
		case err := <-errCh:
			return fmt.Errorf("serve: %w", err)
		}

		return srv.Close()
	},
}
