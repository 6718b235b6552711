package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/wakamono/shokuhi/internal/utils"
	"github.com/wakamono/shokuhi/pkg/collation"
	"github.com/wakamono/shokuhi/pkg/loader"
	"github.com/wakamono/shokuhi/pkg/notify"
	"github.com/wakamono/shokuhi/pkg/service"
	"github.com/wakamono/shokuhi/pkg/storage"
)

// session bundles what a command needs to work on the catalog.
type session struct {
	svc    *service.Service
	db     *storage.DB
	dbPath string
	lock   *utils.DBLock
}

// openSession locks the database, opens it and builds the catalog service.
// When the database cannot be opened the session continues in memory.
func openSession(ctx context.Context) (*session, error) {
	dbPath, err := utils.GetAbsDBPath(viper.GetString("db.path"))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		utils.Log.Warnf("Could not create %s: %v", filepath.Dir(dbPath), err)
	}

	s := &session{dbPath: dbPath}
	if lock, err := utils.NewDBLock(dbPath); err == nil {
		if err := lock.Lock(ctx); err != nil {
			utils.Log.Warnf("Continuing without a database lock: %v", err)
		} else {
			s.lock = lock
		}
	}

	sample, err := loader.SampleSource(
		viper.GetString("sample.path"),
		viper.GetString("sample.url"),
		viper.GetInt("http.retries"),
		viper.GetString("http.proxy"),
	)
	if err != nil {
		s.Close()
		return nil, err
	}

	notifier := notify.New()
	if err := notifier.SubscribeAll(logEvent); err != nil {
		s.Close()
		return nil, err
	}

	cfg := service.Config{
		Sample:   sample,
		Collator: collation.New(viper.GetString("collation.locale")),
		Notifier: notifier,
		Log:      utils.Log,
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		cfg.OpenErr = err
	} else {
		s.db = db
		cfg.Store = db
	}
	s.svc = service.New(cfg)
	return s, nil
}

// bootstrap loads the active catalog, failing when there is none.
func (s *session) bootstrap(ctx context.Context) error {
	snap, err := s.svc.Bootstrap(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("no catalog loaded; run 'shokuhi load <file>' first")
	}
	return nil
}

func (s *session) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			utils.Log.Warnf("Error closing database: %v", err)
		}
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			utils.Log.Warnf("Error releasing database lock: %v", err)
		}
	}
}

func logEvent(e notify.Event) {
	switch e.Kind {
	case notify.CatalogLoadFailed, notify.CatalogSaveFailed:
		utils.Log.Errorf("%s", e)
	case notify.StorageUnavailable:
		utils.Log.Warnf("%s", e)
	default:
		utils.Log.Debugf("%s", e)
	}
}
