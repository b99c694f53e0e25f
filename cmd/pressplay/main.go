package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ferrith/pressplay/internal/config"
	"github.com/ferrith/pressplay/internal/control"
	"github.com/ferrith/pressplay/internal/engine/mpv"
	"github.com/ferrith/pressplay/internal/tui"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile        string
	logLevel       string
	debugMode      bool
	gestureStyle   string
	holdThreshold  time.Duration
	sampleInterval time.Duration
	fullscreen     bool
	volume         int

	// Global config and logger
	cfg    *config.Config
	vp     *viper.Viper
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pressplay",
	Short: "Press-gesture playback control for streamed video",
	Long: `pressplay plays a streamed video through mpv and puts a press-based
control surface in your terminal: hold to play, release to pause, drag
the bar to seek. The hold confirmation threshold and the sampling
cadence are configurable.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, vp, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Flags win over the config file.
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = logLevel
		}
		if debugMode {
			cfg.Logging.Level = "debug"
		}
		if cmd.Flags().Changed("gesture") {
			cfg.Gesture.Style = gestureStyle
		}
		if cmd.Flags().Changed("hold-threshold") {
			cfg.Gesture.HoldThreshold = holdThreshold
		}
		if cmd.Flags().Changed("sample-interval") {
			cfg.Player.SampleInterval = sampleInterval
		}
		if cmd.Flags().Changed("fullscreen") {
			cfg.Player.Fullscreen = fullscreen
		}
		if cmd.Flags().Changed("volume") {
			cfg.Player.Volume = volume
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// The TUI owns the terminal, so console logging would corrupt
		// it; default to a log file when none is configured.
		if cfg.Logging.File == "" {
			if dir, err := os.UserCacheDir(); err == nil {
				cfg.Logging.File = path.Join(dir, "pressplay", "pressplay.log")
			}
		}

		logger, err = config.InitLogger(&cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

var playCmd = &cobra.Command{
	Use:   "play <url>",
	Short: "Play a media URL with the press-gesture control surface",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging and verbose mpv output")

	playCmd.Flags().StringVar(&gestureStyle, "gesture", "", "gesture style: hold or tap")
	playCmd.Flags().DurationVar(&holdThreshold, "hold-threshold", 0, "minimum hold duration before playback starts (hold style)")
	playCmd.Flags().DurationVar(&sampleInterval, "sample-interval", 0, "playback clock sampling cadence")
	playCmd.Flags().BoolVar(&fullscreen, "fullscreen", false, "start mpv in fullscreen")
	playCmd.Flags().IntVar(&volume, "volume", 0, "start volume (0-100)")

	rootCmd.AddCommand(playCmd)
}

func runPlay(ctx context.Context, mediaURL string) error {
	probe(ctx, mediaURL)

	eng, err := mpv.New(logger, debugMode)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Stop() }()
	eng.OnError(func(err error) {
		logger.Error("engine failure", "error", err)
	})

	launchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err = eng.Launch(launchCtx, mediaURL, mpv.LaunchOptions{
		StartPaused:    true,
		Volume:         cfg.Player.Volume,
		Fullscreen:     cfg.Player.Fullscreen,
		Title:          mediaTitle(mediaURL),
		LoadUserConfig: cfg.Player.LoadUserConfig,
		ExtraArgs:      cfg.Player.MPVArgs,
	})
	if err != nil {
		return fmt.Errorf("failed to launch mpv: %w", err)
	}

	session, err := control.NewSession(eng, control.Options{
		SampleInterval: cfg.Player.SampleInterval,
		GestureStyle:   cfg.Gesture.Style,
		HoldThreshold:  cfg.Gesture.HoldThreshold,
	}, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	// Gesture tuning applies live on config file edits.
	config.Watch(vp, func(next *config.Config) {
		session.SetHoldThreshold(next.Gesture.HoldThreshold)
	})

	return tui.Run(session, tui.Options{URL: mediaURL, Title: mediaTitle(mediaURL)})
}

// probe does a best-effort HEAD request so obviously dead URLs fail
// fast and the log records what the stream claims to be. Transport and
// format handling stay entirely mpv's business.
func probe(ctx context.Context, mediaURL string) {
	client := resty.New().SetTimeout(5 * time.Second)
	resp, err := client.R().SetContext(ctx).Head(mediaURL)
	if err != nil {
		logger.Warn("stream probe failed", "url", mediaURL, "error", err)
		return
	}

	attrs := []any{"url", mediaURL, "status", resp.StatusCode()}
	if ct := resp.Header().Get("Content-Type"); ct != "" {
		attrs = append(attrs, "content_type", ct)
	}
	if cl := resp.Header().Get("Content-Length"); cl != "" {
		if size, err := strconv.ParseUint(cl, 10, 64); err == nil {
			attrs = append(attrs, "size", humanize.Bytes(size))
		}
	}
	logger.Info("stream probe", attrs...)
}

// mediaTitle derives a display title from the URL path.
func mediaTitle(mediaURL string) string {
	u, err := url.Parse(mediaURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return mediaURL
	}
	return path.Base(u.Path)
}
