package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/erkantaylan/mdview/internal/config"
	"github.com/erkantaylan/mdview/internal/enhance"
	"github.com/erkantaylan/mdview/internal/source"
	"github.com/erkantaylan/mdview/internal/theme"
)

type options struct {
	configFile string
	port       int
	locale     string
	stateFile  string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "mdview [source]",
		Short: "mdview - markdown viewer with anchors, contents and live reload",
		Long: `mdview renders a single markdown document (a local file or an http(s) URL)
into a page with anchored headings, category call-outs, a table of contents
that follows your scroll position, and a persisted light/dark theme.`,
		Example: "  mdview tools.md\n  mdview --port 8080 docs/guide.md\n  mdview render tools.md -o index.html",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd, opts, args)
			if err != nil {
				return err
			}
			return serve(cfg, log)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "mdview.yml", "config file path")
	flags.StringVar(&opts.locale, "locale", enhance.DefaultLocale, "message language (ru, en)")
	flags.StringVar(&opts.stateFile, "state-file", "", "where the theme preference is stored")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().IntVar(&opts.port, "port", 3000, "port to serve on")

	cmd.AddCommand(newRenderCmd(opts))
	return cmd
}

// loadConfig layers flags that were set explicitly over the loaded config.
func loadConfig(cmd *cobra.Command, opts *options, args []string) (*config.Config, *slog.Logger, error) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if len(args) > 0 {
		cfg.Source = args[0]
	}
	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		cfg.Port = opts.port
	}
	if cmd.Flags().Changed("locale") {
		cfg.Locale = opts.locale
	}
	if cmd.Flags().Changed("state-file") {
		cfg.StateFile = opts.stateFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, log, nil
}

func serve(cfg *config.Config, log *slog.Logger) error {
	msgs, err := enhance.Locale(cfg.Locale)
	if err != nil {
		return err
	}
	src, err := source.New(cfg.Source)
	if err != nil {
		return err
	}
	prefs, err := theme.Load(theme.NewFileStore(cfg.StateFile))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create components
	renderer := NewRenderer(cfg.HighlightStyle, msgs, log)
	hub := NewHub(log)
	go hub.Run(ctx)

	reload := func() {
		page, err := renderer.Render(ctx, src)
		if err != nil {
			log.Error("loading document failed", "source", src.Name(), "error", err)
		} else {
			log.Info("document rendered", "source", src.Name(), "sections", len(page.TOC))
		}
		hub.SetPage(page)
	}
	reload()

	if fileSrc, ok := src.(*source.FileSource); ok {
		watcher := NewWatcher(cfg.Debounce, log)
		if err := watcher.Watch(fileSrc.Path, reload); err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		defer watcher.Close()
	}

	server := NewServer(hub, prefs, cfg.Port, cfg.TrackerBottomMargin, cfg.TrackerThreshold, log)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		server.Shutdown(ctx)
		cancel()
	}()

	fmt.Printf("\n  mdview serving %s\n", src.Name())
	fmt.Printf("  http://localhost:%d\n\n", cfg.Port)

	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
