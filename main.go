package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/tasklist/pkg/api"
	"github.com/harrisonrobin/tasklist/pkg/auth"
	"github.com/harrisonrobin/tasklist/pkg/board"
	"github.com/harrisonrobin/tasklist/pkg/config"
	"github.com/harrisonrobin/tasklist/pkg/devserver"
	"github.com/harrisonrobin/tasklist/pkg/google"
	"github.com/harrisonrobin/tasklist/pkg/index"
	"github.com/harrisonrobin/tasklist/pkg/logging"
	"github.com/harrisonrobin/tasklist/pkg/ui"
)

const logFileName = "tasklist.log"

func main() {
	// 1. Parse Flags
	configPath := flag.String("config", "", "Path to config.toml (overrides TASKLIST_CONFIG)")
	list := flag.Bool("list", false, "Print the sorted task list and exit")
	asJSON := flag.Bool("json", false, "Print the sorted task list as JSON and exit")
	toggleID := flag.String("toggle", "", "Flip the completion state of the task with this id")
	doSync := flag.Bool("sync", false, "Mirror dated tasks onto the Google calendar")
	doAuth := flag.Bool("auth", false, "Authenticate with Google Calendar")
	calendarName := flag.String("calendar", "", "Google Calendar name to sync with (overrides config)")
	setCalendar := flag.String("set-calendar", "", "Set the default Google Calendar name")
	serveAddr := flag.String("serve", "", "Run the in-memory development API on this address (e.g. :8080)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	// 2. Load Config (Priority: Flag > Env > File > Default)
	if *configPath != "" {
		os.Setenv("TASKLIST_CONFIG", *configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config", "err", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *calendarName != "" {
		cfg.Calendar = *calendarName
	}

	logger := logging.New(os.Stderr, logging.Options{Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Commands that do not talk to the task API
	switch {
	case *setCalendar != "":
		path, err := config.SetCalendar(*setCalendar)
		if err != nil {
			logger.Fatal("Error saving config", "err", err)
		}
		fmt.Printf("Default calendar set to: %s (%s)\n", *setCalendar, path)
		return
	case *doAuth:
		if err := runAuth(ctx, logger); err != nil {
			logger.Fatal("Authentication failed", "err", err)
		}
		return
	case *serveAddr != "":
		if err := runServer(ctx, *serveAddr, cfg.APIKey, logger); err != nil {
			logger.Fatal("Server failed", "err", err)
		}
		return
	}

	// 4. Task API client
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid config", "err", err)
	}
	client, err := newAPIClient(cfg)
	if err != nil {
		logger.Fatal("Error creating task API client", "err", err)
	}
	b := board.New(logger)

	switch {
	case *toggleID != "":
		os.Exit(runToggle(ctx, b, client, *toggleID))
	case *doSync:
		os.Exit(runSync(ctx, cfg, b, client, logger))
	case *list || *asJSON || !ui.IsTTY(os.Stdout):
		os.Exit(runList(ctx, b, client, *asJSON))
	}

	if err := runTUI(ctx, cfg, client); err != nil {
		logger.Fatal("TUI failed", "err", err)
	}
}

func newAPIClient(cfg *config.Config) (*api.Client, error) {
	opts := []api.Option{api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()})}
	if cfg.Strict || cfg.SchemaFile != "" {
		schema, err := api.LoadSchema(cfg.SchemaFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, api.WithSchema(schema))
	}
	return api.NewClient(cfg.APIBaseURL, cfg.APIKey, opts...), nil
}

// runList prints the sorted list. A failed fetch is logged and leaves the
// output empty, as with the interactive list.
func runList(ctx context.Context, b *board.Board, client *api.Client, asJSON bool) int {
	if err := b.Refresh(ctx, client); err != nil {
		return 1
	}
	tasks := b.Sorted(time.Now())
	write := ui.WriteList
	if asJSON {
		write = ui.WriteJSON
	}
	if err := write(os.Stdout, tasks); err != nil {
		return 1
	}
	return 0
}

func runToggle(ctx context.Context, b *board.Board, client *api.Client, id string) int {
	if err := b.Refresh(ctx, client); err != nil {
		return 1
	}
	task, err := b.Toggle(ctx, client, id)
	if err != nil {
		return 1
	}
	fmt.Println(ui.FormatTask(task))
	return 0
}

func runTUI(ctx context.Context, cfg *config.Config, client *api.Client) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	f, err := logging.OpenFile(dir, logFileName)
	if err != nil {
		return err
	}
	defer f.Close()

	fileLogger := logging.New(f, logging.Options{Level: cfg.LogLevel, ReportTimestamp: true})
	return ui.RunTUI(ctx, client, board.New(fileLogger), fileLogger, ui.WithRefreshInterval(cfg.RefreshInterval()))
}

func runAuth(ctx context.Context, logger *log.Logger) error {
	dir, err := config.Dir()
	if err != nil {
		return fmt.Errorf("could not find path to configuration directory: %w", err)
	}
	if err := auth.Reset(dir); err != nil {
		return err
	}
	if _, err := auth.GetClient(ctx, dir, google.Scopes, logger); err != nil {
		return err
	}
	logger.Info("Authentication successful", "token", auth.TokenPath(dir))
	return nil
}

func runSync(ctx context.Context, cfg *config.Config, b *board.Board, client *api.Client, logger *log.Logger) int {
	if err := b.Refresh(ctx, client); err != nil {
		return 1
	}

	dir, err := config.Dir()
	if err != nil {
		logger.Error("Could not find configuration directory", "err", err)
		return 1
	}
	evtIndex, err := index.NewEventIndex(index.DefaultPath(dir))
	if err != nil {
		logger.Warn("Failed to load event index, starting empty", "err", err)
		evtIndex = &index.EventIndex{Mappings: map[string]string{}, Path: index.DefaultPath(dir)}
	}

	httpClient, err := auth.GetClient(ctx, dir, google.Scopes, logger)
	if err != nil {
		logger.Error("Error authenticating with Google", "err", err)
		return 1
	}
	gClient, err := google.NewClient(ctx, cfg.Calendar, evtIndex, option.WithHTTPClient(httpClient))
	if err != nil {
		logger.Error("Error creating Google Calendar client", "err", err)
		return 1
	}

	res := gClient.Mirror(ctx, b.Tasks(), time.Now(), logger)
	if err := evtIndex.Save(); err != nil {
		logger.Warn("Failed to save event index", "err", err)
	}
	logger.Info("Calendar mirrored", "calendar", cfg.Calendar, "synced", res.Synced, "removed", res.Removed, "failed", res.Failed)
	if res.Failed > 0 {
		return 1
	}
	return 0
}

func runServer(ctx context.Context, addr, apiKey string, logger *log.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	s := devserver.New(apiKey, devserver.SeedTasks(time.Now()), logger)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Development API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
