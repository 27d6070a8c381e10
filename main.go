package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/justinmdickey/goplaying/internal/logger"
	"github.com/justinmdickey/goplaying/internal/nowplaying"
	"github.com/justinmdickey/goplaying/internal/platform"
	"github.com/justinmdickey/goplaying/internal/prefs"
	"github.com/spf13/pflag"
)

var (
	colorFlag     string
	noArtworkFlag bool
	seekModeFlag  bool
	overlayFlag   string
	logLevelFlag  string
)

func init() {
	pflag.StringVarP(&colorFlag, "color", "c", "2", "Set the desired color (name or hex)")
	pflag.BoolVar(&noArtworkFlag, "no-artwork", false, "Disable album artwork display")
	pflag.BoolVar(&seekModeFlag, "seek-mode", false, "Start with previous/next mapped to seeking")
	pflag.StringVar(&overlayFlag, "overlay", "", "Serve a websocket overlay on this address (e.g. localhost:8975)")
	pflag.StringVar(&logLevelFlag, "log-level", "info", "Log level (debug, info, warn, error)")
}

func main() {
	pflag.Parse()
	initConfig(pflag.CommandLine)
	cfg := config.Get()

	log, logCloser, err := logger.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	defer logCloser.Close()

	statePath := cfg.statePath()
	if err := os.MkdirAll(filepath.Dir(statePath), 0755); err != nil {
		log.Warn().Err(err).Msg("could not create state directory")
	}
	store, err := prefs.Open(statePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	if seekModeFlag {
		if err := store.SetSeekMode(true); err != nil {
			log.Warn().Err(err).Msg("could not enable seek mode")
		}
	}

	caps := platform.New(platform.Options{Logger: &log})
	adapter := nowplaying.NewAdapter(caps, nowplaying.AdapterOptions{Logger: &log})

	reconciler := nowplaying.NewReconciler(adapter, nowplaying.ReconcilerOptions{
		Interval:     time.Duration(cfg.Timing.DataFetchMs) * time.Millisecond,
		FetchTimeout: cfg.fetchTimeout(),
		Decode:       nowplaying.ThumbnailDecoder(cfg.Artwork.WidthPixels),
		Logger:       &log,
	})
	router := nowplaying.NewRouter(caps, adapter, nowplaying.RouterOptions{
		Profiles:     nowplaying.NewProfiles(cfg.profileOptions()),
		Preferences:  store,
		TargetDomain: cfg.Automation.TargetDomain,
		OnDispatched: reconciler.Refresh,
		Logger:       &log,
	})

	onConfigReload(func(c Config) {
		router.Reconfigure(nowplaying.NewProfiles(c.profileOptions()), c.Automation.TargetDomain)
		log.Info().Msg("config reloaded")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := reconciler.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("reconciler stopped")
		}
	}()

	if addr := cfg.Overlay.ListenAddr; addr != "" {
		overlay := newOverlayServer(log)
		overlayUpdates, unsubscribe := reconciler.Subscribe()
		defer unsubscribe()
		go overlay.run(ctx, reconciler, overlayUpdates)
		go func() {
			if err := serveOverlay(ctx, addr, overlay); err != nil {
				log.Error().Err(err).Str("addr", addr).Msg("overlay server failed")
			}
		}()
	}

	updates, unsubscribe := reconciler.Subscribe()
	defer unsubscribe()

	m := newModel(reconciler, updates, router, store, supportsKittyGraphics())
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Error().Err(err).Msg("program exited with error")
		fmt.Printf("Error: %v", err)
		os.Exit(1)
	}
	log.Info().Msg("shutting down")
}
