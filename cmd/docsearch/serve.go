package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/f4ah6o/docsearch-go/internal/server"
)

var (
	serveAddr   string
	serveSQLite bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the exported site with search and highlight",
	Long: `Serves server.site_dir together with the generated index, the search API
and an HTML results fragment. Pages requested with ?highlight= come back with
the first match wrapped in a highlight span.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if _, err := os.Stat(cfg.Server.SiteDir); err != nil {
			log.Printf("Warning: site directory %s not found, only the API is served", cfg.Server.SiteDir)
		}

		table, err := loadPageMap(cfg)
		if err != nil {
			return err
		}
		index, closeIndex, err := openIndex(cfg, serveSQLite)
		if err != nil {
			return err
		}
		defer closeIndex()

		srv := server.New(server.Config{
			Addr:           cfg.Server.Addr,
			SiteDir:        cfg.Server.SiteDir,
			AllowAll:       cfg.Server.AllowAll,
			MaxResults:     cfg.Search.MaxResults,
			HighlightColor: cfg.Search.HighlightColor,
			Highlight:      cfg.HighlightOptions(),
		}, index, table)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Load eagerly so a broken index shows up in the startup log.
		index.Load(ctx)
		log.Printf("Index: %d records, page map: %d entries", len(index.Records(ctx)), table.Len())

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			log.Printf("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
	serveCmd.Flags().BoolVar(&serveSQLite, "sqlite", false, "serve the SQLite store instead of the JSON index")
	rootCmd.AddCommand(serveCmd)
}
