package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

type flags struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
	RecordID   string
	Source     string
	DataPath   string
	DBURL      string
	ServiceURL string
}

type app struct {
	flags     flags
	cfg       *Config
	logCloser func()
}

func main() {
	// A missing .env is fine; real environment variables always win.
	_ = godotenv.Load()

	a := &app{}
	cmd := a.command()

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) command() *cli.Command {
	f := &a.flags
	return &cli.Command{
		Name:      "dps",
		Usage:     "Dealer performance dashboard",
		UsageText: "dps [global options] [command [command options]]",
		Description: `Loads the dealer performance dashboard for a record from the configured
data service and shows opportunities, contacts and the scorecard links.

Run 'dps' with no command to open the interactive dashboard.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("DPS_CONFIG"),
				Value:       "dps.yaml",
				Destination: &f.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("DPS_LOG_LEVEL"),
				Destination: &f.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (the interactive view defaults to a file in the temp dir)",
				Sources:     cli.EnvVars("DPS_LOG_FILE"),
				Destination: &f.LogFile,
			},
			&cli.StringFlag{
				Name:        "record-id",
				Aliases:     []string{"r"},
				Usage:       "record whose dashboard is loaded",
				Sources:     cli.EnvVars("DPS_RECORD_ID"),
				Destination: &f.RecordID,
			},
			&cli.StringFlag{
				Name:        "source",
				Usage:       "data source: file, postgres or http",
				Sources:     cli.EnvVars("DPS_SOURCE"),
				Destination: &f.Source,
			},
			&cli.StringFlag{
				Name:        "data",
				Usage:       "fixture file for the file source",
				Sources:     cli.EnvVars("DPS_DATA"),
				Destination: &f.DataPath,
			},
			&cli.StringFlag{
				Name:        "db-url",
				Usage:       "Postgres DSN for the postgres source",
				Sources:     cli.EnvVars("DPS_DB_DSN", "DATABASE_URL"),
				Destination: &f.DBURL,
			},
			&cli.StringFlag{
				Name:        "service-url",
				Usage:       "base URL of the data service for the http source",
				Sources:     cli.EnvVars("DPS_SERVICE_URL"),
				Destination: &f.ServiceURL,
			},
		},
		Before: a.before,
		After: func(ctx context.Context, c *cli.Command) error {
			if a.logCloser != nil {
				a.logCloser()
			}
			return nil
		},
		Action: a.runView,
		Commands: []*cli.Command{
			{
				Name:   "view",
				Usage:  "Open the interactive dashboard",
				Action: a.runView,
			},
			a.printCommand(),
			a.linksCommand(),
			a.serveCommand(),
			a.seedCommand(),
		},
	}
}

func (a *app) before(ctx context.Context, c *cli.Command) (context.Context, error) {
	cfg, err := LoadConfig(a.flags.ConfigPath)
	if err != nil {
		return ctx, fmt.Errorf("load config: %w", err)
	}
	a.applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return ctx, fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	logFile := cfg.Log.File
	interactive := c.Args().Len() == 0 || c.Args().First() == "view"
	if logFile == "" && interactive {
		logFile = filepath.Join(os.TempDir(), "dps.log")
	}

	logger, closer, err := newLogger(cfg.Log.Level, logFile)
	if err != nil {
		return ctx, fmt.Errorf("setup logger: %w", err)
	}
	log.Logger = logger
	a.logCloser = closer

	return ctx, nil
}

// applyFlags lets explicitly set flags and environment variables override
// the config file.
func (a *app) applyFlags(cfg *Config) {
	f := a.flags
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Log.Level, f.LogLevel)
	set(&cfg.Log.File, f.LogFile)
	set(&cfg.RecordID, f.RecordID)
	set(&cfg.Source.Kind, f.Source)
	set(&cfg.Source.File, f.DataPath)
	set(&cfg.Source.DSN, f.DBURL)
	set(&cfg.Source.URL, f.ServiceURL)
}

// openService builds the configured data source. The returned closer is
// never nil.
func openService(ctx context.Context, cfg *Config) (QueryService, func(), error) {
	noop := func() {}
	switch cfg.Source.Kind {
	case SourcePostgres:
		db, err := openDB(ctx, cfg.Source.DSN)
		if err != nil {
			return nil, noop, err
		}
		svc := newPGQueryService(db, cfg.Source.Timeout)
		return svc, func() { _ = svc.Close() }, nil
	case SourceHTTP:
		return newHTTPQueryService(cfg.Source.URL, cfg.Source.Timeout), noop, nil
	default:
		svc, err := newFileQueryService(cfg.Source.File)
		if err != nil {
			return nil, noop, fmt.Errorf("open fixtures: %w", err)
		}
		return svc, noop, nil
	}
}

func (a *app) newDashboard(ctx context.Context, nav Navigator) (*Dashboard, *Bus, func(), error) {
	if err := a.cfg.RequireRecordID(); err != nil {
		return nil, nil, nil, err
	}
	svc, closer, err := openService(ctx, a.cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := log.With().Str("component", "dashboard").Logger()
	bus := NewBus()
	bus.Subscribe(logSubscriber(log.With().Str("component", "notify").Logger()))

	d := NewDashboard(a.cfg.RecordID, svc, bus, nav, a.cfg.Links, logger)
	return d, bus, closer, nil
}

func (a *app) runView(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() > 0 {
		return fmt.Errorf("unknown command %q. Run 'dps --help' for usage", c.Args().First())
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		log.Info().Msg("stdout is not a terminal, printing the dashboard instead")
		return a.printDashboard(ctx, "", "", "")
	}

	d, bus, closer, err := a.newDashboard(ctx, browserNavigator{})
	if err != nil {
		return err
	}
	defer closer()

	m := newModel(ctx, d, bus)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}

func (a *app) printCommand() *cli.Command {
	var bac, format, out string
	return &cli.Command{
		Name:      "print",
		Usage:     "Print the dashboard without the interactive view",
		UsageText: "dps print [--bac BAC] [--format text|json] [--out path]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bac", Usage: "select this BAC and re-fetch before printing", Destination: &bac},
			&cli.StringFlag{Name: "format", Usage: "text or json (defaults from --out extension)", Destination: &format},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write to file instead of stdout", Destination: &out},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return a.printDashboard(ctx, bac, format, out)
		},
	}
}

func (a *app) printDashboard(ctx context.Context, bac, format, out string) error {
	d, bus, closer, err := a.newDashboard(ctx, nil)
	if err != nil {
		return err
	}
	defer closer()
	bus.Subscribe(func(n Notification) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", n.Title, n.Message)
	})

	if err := d.LoadInitial(ctx); err != nil {
		return errors.New("dashboard unavailable")
	}
	if bac != "" {
		d.SelectBAC(bac)
		// A failed re-fetch is already reported; the previous data is still printed.
		_ = d.Go(ctx)
	}
	return writeReport(out, format, d.RecordID(), d.View())
}

func (a *app) linksCommand() *cli.Command {
	var open bool
	return &cli.Command{
		Name:  "links",
		Usage: "Print the scorecard and summary links for the record",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "open", Usage: "also open both links in the browser", Destination: &open},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var nav Navigator
			if open {
				nav = browserNavigator{}
			}
			d, bus, closer, err := a.newDashboard(ctx, nav)
			if err != nil {
				return err
			}
			defer closer()
			bus.Subscribe(func(n Notification) {
				fmt.Fprintf(os.Stderr, "%s: %s\n", n.Title, n.Message)
			})

			if err := d.LoadInitial(ctx); err != nil {
				return errors.New("dashboard unavailable")
			}
			fmt.Println("scorecard:", d.OpenScorecard())
			fmt.Println("summary:  ", d.OpenSummary())
			return nil
		},
	}
}

func (a *app) serveCommand() *cli.Command {
	var addr string
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve dashboard payloads and views over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address", Sources: cli.EnvVars("DPS_ADDR"), Destination: &addr},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			if a.cfg.Source.Kind == SourceHTTP {
				return errors.New("serve needs a file or postgres source")
			}
			svc, closer, err := openService(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer closer()

			logger := log.With().Str("component", "server").Logger()
			return serve(ctx, addr, NewHandler(svc, a.cfg.Links, logger), logger)
		},
	}
}

func serve(ctx context.Context, addr string, h *Handler, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *app) seedCommand() *cli.Command {
	var file string
	return &cli.Command{
		Name:  "seed",
		Usage: "Import a fixture file into Postgres",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "fixture file (defaults to the file source path)", Destination: &file},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if file == "" {
				file = a.cfg.Source.File
			}
			records, err := loadFixtures(file)
			if err != nil {
				return fmt.Errorf("load fixtures: %w", err)
			}

			db, err := openDB(ctx, a.cfg.Source.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			rows := seedRows(records)
			if err := seedDatabase(ctx, db, rows, time.Now()); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Printf("Seeded %d payloads for %d records.\n", len(rows), len(records))
			return nil
		},
	}
}
