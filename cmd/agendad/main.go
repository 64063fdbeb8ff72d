package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/sandeepkv93/agendad/internal/api"
	"github.com/sandeepkv93/agendad/internal/clock"
	"github.com/sandeepkv93/agendad/internal/config"
	"github.com/sandeepkv93/agendad/internal/push"
	"github.com/sandeepkv93/agendad/internal/query"
	"github.com/sandeepkv93/agendad/internal/storage"
	"github.com/sandeepkv93/agendad/internal/update"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agendad failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", config.DefaultPath(), "path to the yaml config file")
	serverURL := pflag.String("server", "", "provider base url (overrides config)")
	token := pflag.String("token", "", "bearer token (overrides config)")
	dbPath := pflag.String("db", "", "sqlite database path (overrides config)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	cfg = config.FromEnv(cfg)
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *token != "" {
		cfg.Token = *token
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if cfg.DBPath == "" {
		cfg.DBPath = config.DefaultDBPath()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	client := api.NewClient(cfg.ServerURL, cfg.Token)
	cs := clock.New()
	agg := query.NewAggregator(client, cs)
	agg.SetStaleAfter(time.Duration(cfg.StaleSeconds) * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := push.NewStream(cfg.ServerURL, cfg.Token)
	go stream.Run(ctx)

	model := update.NewModel(update.Deps{
		Aggregator: agg,
		Clock:      cs,
		API:        client,
		Store:      store,
		PushEvents: stream.Events(),
		PushStates: stream.States(),
		PageSize:   cfg.PageSize,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}

func openStore(path string) (*storage.SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	store, err := storage.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := storage.MigrateUp(store.DB()); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}
