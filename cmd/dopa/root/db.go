package root

import (
	"context"
	"database/sql"

	"github.com/realQhimself/dopamine-app/internal/calendar"
	"github.com/realQhimself/dopamine-app/internal/coach"
	"github.com/realQhimself/dopamine-app/internal/config"
	"github.com/realQhimself/dopamine-app/internal/engine"
	applog "github.com/realQhimself/dopamine-app/internal/log"
	"github.com/realQhimself/dopamine-app/internal/storage"
)

func loadConfig() (*config.Config, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, func(), error) {
	path := cfg.DBPath
	if path == "" {
		var err error
		path, err = storage.DefaultDBPath()
		if err != nil {
			return nil, nil, err
		}
	}
	db, err := storage.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = db.Close()
	}
	return db, cleanup, nil
}

func openService(ctx context.Context) (*engine.Service, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	db, cleanup, err := openDB(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	svc := engine.NewService(db)
	if err := svc.Load(ctx); err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return svc, cfg, cleanup, nil
}

func openCalendarSession(ctx context.Context, svc *engine.Service, cfg *config.Config) (*calendar.Session, error) {
	auth := calendar.NewGoogleAuthorizer(cfg.GoogleClientID, cfg.GoogleClientSecret)
	sess := calendar.NewSession(svc.DocRepo(), calendar.NewClient(), auth)
	if err := sess.Load(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

// calendarOverlay syncs today's events and projects them into read-only
// display tasks. Best effort: no connection or a failed sync yields an empty
// overlay, never an error.
func calendarOverlay(ctx context.Context, svc *engine.Service, cfg *config.Config) []engine.Task {
	sess, err := openCalendarSession(ctx, svc, cfg)
	if err != nil || !sess.Connected() {
		return nil
	}
	if err := sess.SyncToday(ctx); err != nil {
		applog.Warn("calendar sync for overlay failed", "err", err)
	}
	return calendar.TasksFromEvents(sess.Events())
}

func openCoach(ctx context.Context, svc *engine.Service, cfg *config.Config) (*coach.Store, error) {
	store := coach.NewStore(svc.DocRepo(), coach.NewClient(cfg.GeminiAPIKey))
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
