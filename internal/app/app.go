package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/memheat/internal/config"
	"github.com/five82/memheat/internal/frames"
	"github.com/five82/memheat/internal/heatmap"
	"github.com/five82/memheat/internal/logtail"
	"github.com/five82/memheat/internal/metrics"
	"github.com/five82/memheat/internal/prefs"
	"github.com/five82/memheat/internal/state"
	"github.com/five82/memheat/internal/ui"
)

// Options configure the memheat application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses default ~/.config/memheat/prefs.toml
	TracePath  string        // overrides log_file
	PollEvery  time.Duration // overrides update_interval; zero keeps config
}

// Run boots the memheat TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log, restoreLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer restoreLog()

	// Background workers log until they stop, so they are cancelled before
	// the log file is closed.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.WithFields(logrus.Fields{
		"trace":   cfg.LogFile,
		"memory":  cfg.MemorySize,
		"buckets": cfg.BucketCount,
		"policy":  cfg.ZoomPolicy.String(),
	}).Info("memheat starting")

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		log.WithError(err).Warn("load prefs failed, using defaults")
	}

	agg, err := heatmap.New(heatmap.Options{
		MemorySize:   cfg.MemorySize,
		Buckets:      cfg.BucketCount,
		Format:       cfg.Format,
		Policy:       cfg.ZoomPolicy,
		FrameHistory: cfg.FrameHistory,
		Logger:       log.WithField("component", "heatmap"),
	})
	if err != nil {
		return fmt.Errorf("init aggregator: %w", err)
	}

	store := &state.Store{}
	p := &poller{
		tailer: logtail.NewFile(cfg.LogFile, logtail.WithLogger(log.WithField("component", "logtail"))),
		agg:    agg,
		store:  store,
		log:    log.WithField("component", "poller"),
	}

	if cfg.MetricsAddr != "" {
		p.metrics = metrics.New()
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, p.metrics, log.WithField("component", "metrics")); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	wake, err := watchTrace(ctx, cfg.LogFile, log.WithField("component", "watch"))
	if err != nil {
		log.WithError(err).Warn("trace watch unavailable, polling on timer only")
	}

	// Populate the store before the UI draws its first frame.
	p.tick()
	pollerDone := startPoller(ctx, p, cfg.UpdateInterval, wake)

	loader := frames.NewLoader(frames.Config{
		ImagePattern:        cfg.ImagePattern,
		InstructionsPattern: cfg.InstructionsPattern,
		InstructionLines:    cfg.InstructionLines,
		CacheSize:           cfg.AuxCacheSize,
	}, log)

	err = ui.Run(ui.Options{
		Context:        ctx,
		Store:          store,
		Control:        agg,
		Loader:         loader,
		TracePath:      cfg.LogFile,
		GridColumns:    cfg.GridColumns,
		FlashThreshold: cfg.FlashThreshold,
		PollTick:       cfg.UpdateInterval,
		ThemeName:      userPrefs.Theme,
		ColorScheme:    userPrefs.ColorScheme,
		PrefsPath:      opts.PrefsPath,
		Log:            log,
	})
	cancel()
	<-pollerDone
	log.Info("memheat stopped")
	return err
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.TracePath != "" {
		path, err := config.ExpandPath(opts.TracePath)
		if err != nil {
			return config.Config{}, fmt.Errorf("resolve trace path: %w", err)
		}
		cfg.LogFile = path
	}
	if opts.PollEvery > 0 {
		cfg.UpdateInterval = opts.PollEvery
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
