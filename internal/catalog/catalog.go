// Package catalog loads notification category overrides from a YAML file and
// swaps them in at runtime when the file changes.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	yaml "go.yaml.in/yaml/v3"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/engine"
)

const reloadDebounce = 250 * time.Millisecond

// File is the on-disk layout of the category table
type File struct {
	Categories    map[string]string `yaml:"categories"`
	FallbackHours map[string]int    `yaml:"fallback_hours"`
}

// Catalog holds the current classifier. Reads are lock-free.
type Catalog struct {
	path    string
	current atomic.Pointer[engine.Classifier]
	log     *zap.Logger
}

// New returns a catalog serving the built-in table until Load succeeds.
// An empty path keeps the built-in table for the process lifetime.
func New(path string, log *zap.Logger) *Catalog {
	c := &Catalog{path: path, log: log}
	c.current.Store(engine.DefaultClassifier())
	return c
}

// Classifier returns the active classifier
func (c *Catalog) Classifier() *engine.Classifier {
	return c.current.Load()
}

// Load parses the file and swaps in the resulting classifier. On error the
// previous classifier stays active.
func (c *Catalog) Load() error {
	if c.path == "" {
		return nil
	}
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("failed to read category catalog: %w", err)
	}
	classifier, err := Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse category catalog %s: %w", c.path, err)
	}
	c.current.Store(classifier)
	c.log.Info("Category catalog loaded",
		zap.String("path", c.path),
		zap.Int("types", classifier.Types()))
	return nil
}

// Parse validates a YAML category table and merges it over the built-in defaults
func Parse(raw []byte) (*engine.Classifier, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	categories := make(map[string]engine.Category, len(f.Categories))
	for notificationType, name := range f.Categories {
		if strings.TrimSpace(notificationType) == "" {
			return nil, errors.New("empty notification type in categories")
		}
		category := engine.Category(strings.ToLower(strings.TrimSpace(name)))
		if !category.Valid() {
			return nil, fmt.Errorf("unknown category %q for %s", name, notificationType)
		}
		categories[notificationType] = category
	}

	for notificationType, hour := range f.FallbackHours {
		if strings.TrimSpace(notificationType) == "" {
			return nil, errors.New("empty notification type in fallback_hours")
		}
		if hour < 0 || hour > 23 {
			return nil, fmt.Errorf("fallback hour %d for %s is outside 0-23", hour, notificationType)
		}
	}

	return engine.NewClassifier(categories, f.FallbackHours), nil
}

// Watch reloads the catalog whenever the file is written, until ctx is done.
// The directory is watched so editors that replace the file are picked up.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(c.path)
	file := filepath.Base(c.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	reload := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, func() {
			if err := c.Load(); err != nil {
				c.log.Warn("Category catalog rejected, keeping previous table",
					zap.String("path", c.path),
					zap.Error(err))
			}
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	c.log.Info("Watching category catalog", zap.String("path", c.path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return errors.New("catalog watcher closed")
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("catalog watcher closed")
			}
			c.log.Warn("Category catalog watcher error", zap.Error(err))
		}
	}
}
