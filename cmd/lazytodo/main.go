package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Joseda-hg/lazytodo/internal/app"
	"github.com/Joseda-hg/lazytodo/internal/config"
	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
	"github.com/Joseda-hg/lazytodo/internal/tui"
	"github.com/Joseda-hg/lazytodo/internal/view"
	"github.com/Joseda-hg/lazytodo/internal/web"
)

type options struct {
	configPath string
	dbPath     string
	web        bool
	webOnly    bool
	port       int
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "lazytodo",
		Short:         "A small local task list",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file path (.json or .toml)")
	flags.StringVar(&opts.dbPath, "db", "", "sqlite db path")
	flags.BoolVar(&opts.web, "web", false, "enable web server")
	flags.BoolVar(&opts.webOnly, "web-only", false, "run web server only")
	flags.IntVar(&opts.port, "port", 0, "web server port")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	return cmd
}

func run(ctx context.Context, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfgPath, err := resolveConfigPath(opts.configPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.web || opts.webOnly {
		cfg.WebEnabled = true
	}
	if opts.port != 0 {
		cfg.WebPort = opts.port
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	cfg.FillPaths(cfgPath)

	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	if err := config.EnsureDir(cfg.LogPath); err != nil {
		return err
	}
	log, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, closeStore, err := openStore(cfg.DBPath, log)
	if err != nil {
		return err
	}
	defer closeStore()

	repo := tasks.New(ctx, store, log)
	log.Info("task list loaded", zap.String("db", cfg.DBPath), zap.Int("tasks", len(repo.Tasks())))

	if opts.webOnly {
		return serveWeb(cfg.WebPort, app.NewController(repo, log), repo, log)
	}

	ui := tui.New(app.NewController(repo, log), log)
	if cfg.WebEnabled {
		webCtrl := app.NewController(repo, log)
		webCtrl.OnRender = func(view.Tree) { ui.Refresh() }
		go func() {
			if err := serveWeb(cfg.WebPort, webCtrl, repo, log); err != nil {
				log.Error("web server stopped", zap.Error(err))
			}
		}()
	}

	return ui.Run()
}

func serveWeb(port int, ctrl *app.Controller, repo *tasks.Repository, log *zap.Logger) error {
	addr := fmt.Sprintf(":%d", port)
	log.Info("web server running", zap.String("url", "http://localhost"+addr))
	return http.ListenAndServe(addr, web.NewServer(ctrl, repo, log).Handler())
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func openStore(dbPath string, log *zap.Logger) (*db.Store, func(), error) {
	if err := config.EnsureDir(dbPath); err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}

	return db.NewStore(sqlDB, log), func() { _ = sqlDB.Close() }, nil
}
