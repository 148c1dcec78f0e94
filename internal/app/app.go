// Package app builds the engine and its collaborators from a Config.
package app

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tatianab/island-adventure/internal/config"
	"github.com/tatianab/island-adventure/internal/engine"
	"github.com/tatianab/island-adventure/internal/models"
	"github.com/tatianab/island-adventure/internal/storage/sqlite"
	"github.com/tatianab/island-adventure/internal/story"
)

// App is a ready-to-play engine plus what has to be closed afterwards.
type App struct {
	Config *config.Config
	Engine *engine.Engine
	Logger *slog.Logger
	// Warnings are setup problems the player should be told about. None of
	// them stop the game.
	Warnings []string

	closers []io.Closer
}

// New wires logging, the save backend and the story into an engine.
func New(cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	logger, closer, err := NewLogger(cfg.LogPath)
	if err != nil {
		a.Warnings = append(a.Warnings, "Unable to set up logging.")
	}
	a.Logger = logger
	a.addCloser(closer)

	graph, err := story.Island()
	if err != nil {
		a.Close()
		return nil, err
	}

	store, closer, err := NewGateway(cfg)
	if err != nil {
		logger.Error("save backend unavailable, using save file", "backend", cfg.SaveBackend, "error", err)
		a.Warnings = append(a.Warnings, "Unable to open the save database. Saving to a file instead.")
		store = models.NewFileStore(cfg.SavePath)
	}
	a.addCloser(closer)

	a.Engine = engine.NewEngine(graph, store, logger)
	logger.Info("game ready", "story", graph.Title, "backend", cfg.SaveBackend)
	return a, nil
}

func (a *App) addCloser(c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, c)
	}
}

// Close releases the log file and the save backend.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewLogger returns a logger appending human-readable entries to path. If
// the file cannot be opened the logger discards everything and the error is
// returned alongside it, so callers can always use the logger.
func NewLogger(path string) (*slog.Logger, io.Closer, error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return slog.New(slog.DiscardHandler), nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return slog.New(slog.DiscardHandler), nil, err
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(h), f, nil
}

// NewGateway opens the configured save backend.
func NewGateway(cfg *config.Config) (engine.Gateway, io.Closer, error) {
	switch cfg.SaveBackend {
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return models.NewFileStore(cfg.SavePath), nil, nil
	}
}
