package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"kioskpanel/internal/log"
)

// CatalogStore hands out the current catalog and lets a watcher swap it.
type CatalogStore struct {
	mu      sync.RWMutex
	catalog *Catalog
}

func NewCatalogStore(c *Catalog) *CatalogStore {
	return &CatalogStore{catalog: c}
}

func (s *CatalogStore) Get() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

func (s *CatalogStore) Set(c *Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = c
}

// Watch reloads path into the store whenever it changes until ctx is done.
// The parent directory is watched so editors that replace the file by rename
// are picked up. A file that fails to parse leaves the store untouched.
func (s *CatalogStore) Watch(ctx context.Context, path string, logger log.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	logger.Info("watching action catalog", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			cat, err := LoadCatalog(abs)
			if err != nil {
				logger.Error(err, "action catalog reload rejected", "path", abs)
				continue
			}
			s.Set(cat)
			logger.Info("action catalog reloaded", "path", abs, "actions", len(cat.Actions))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error(err, "action catalog watcher error")
		}
	}
}
