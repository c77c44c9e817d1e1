package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/shramba/internal/api"
	"github.com/erazemk/shramba/internal/config"
	"github.com/erazemk/shramba/internal/db"
	"github.com/erazemk/shramba/internal/imaging"
	"github.com/erazemk/shramba/internal/inventory"
	"github.com/erazemk/shramba/internal/logger"
	"github.com/erazemk/shramba/internal/store"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "shramba",
		Short:         "Household inventory tracker",
		Long:          "shramba keeps track of what is stored where at home and what is about to expire.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	root.SetOut(out)
	cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the database and photo directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initialize(cfg, cmd.OutOrStdout())
		},
	})

	return root
}

// openDatabase opens the database and brings its schema up to date.
func openDatabase(cfg *config.Config) (*store.Store, func() error, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, nil, err
	}
	return store.New(database), database.Close, nil
}

func initialize(cfg *config.Config, out io.Writer) error {
	if err := cfg.ResolveDefaults(); err != nil {
		return err
	}

	_, closeDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if _, err := imaging.NewLibrary(cfg.ImageDir); err != nil {
		return err
	}

	fmt.Fprintf(out, "Database ready: %s (schema version %d)\n", cfg.DBPath, db.SchemaVersion)
	fmt.Fprintf(out, "Photos stored in: %s\n", cfg.ImageDir)
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ResolveDefaults(); err != nil {
		return err
	}

	log, closeLog, err := logger.New(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		return err
	}
	defer closeLog()

	s, closeDB, err := openDatabase(cfg)
	if err != nil {
		log.Error().Stack().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
		return err
	}
	defer closeDB()
	log.Info().Str("path", cfg.DBPath).Msg("database ready")

	presets, err := config.LoadPresets(cfg.PresetsFile)
	if err != nil {
		log.Error().Stack().Err(err).Str("path", cfg.PresetsFile).Msg("failed to load presets")
		return err
	}

	images, err := imaging.NewLibrary(cfg.ImageDir)
	if err != nil {
		log.Error().Stack().Err(err).Msg("failed to prepare photo directory")
		return err
	}

	inv, err := inventory.New(ctx, s, inventory.Options{Grace: cfg.Grace, Logger: log})
	if err != nil {
		log.Error().Stack().Err(err).Msg("failed to start inventory")
		return err
	}
	defer inv.Close()

	// The server outlives ctx so that Shutdown, not the signal, ends the
	// open requests.
	server := api.NewServer(context.Background(), cfg.Addr, api.NewRouter(api.Deps{
		Inventory: inv,
		Images:    images,
		Presets:   presets,
		Log:       log,
	}))

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("server started")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Stack().Err(err).Msg("server error")
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Stack().Err(err).Msg("server forced to shutdown")
		}
	}

	log.Info().Msg("server stopped, closing database")
	return nil
}
