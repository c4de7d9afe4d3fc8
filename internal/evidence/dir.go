package evidence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jonathan/resume-guard/internal/parsing"
)

// DirIndex keeps a MemoryIndex in sync with a directory of evidence files
// (.txt, .md, .pdf, .docx).
type DirIndex struct {
	*MemoryIndex
	dir    string
	logger *zap.Logger
}

// NewDirIndex loads every supported file in dir.
func NewDirIndex(dir string, logger *zap.Logger) (*DirIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &DirIndex{MemoryIndex: NewMemoryIndex(), dir: dir, logger: logger}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read evidence dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !parsing.SupportedFile(e.Name()) {
			continue
		}
		if err := d.load(filepath.Join(dir, e.Name())); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Watch re-indexes files as they change until ctx is cancelled.
func (d *DirIndex) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(d.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", d.dir, err)
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				d.handle(event)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.logger.Warn("evidence watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func (d *DirIndex) handle(event fsnotify.Event) {
	if !parsing.SupportedFile(event.Name) {
		return
	}
	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		d.Remove(filepath.Base(event.Name))
		d.logger.Info("evidence file removed", zap.String("file", event.Name))
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if err := d.load(event.Name); err != nil {
			d.logger.Warn("failed to reload evidence file", zap.String("file", event.Name), zap.Error(err))
			return
		}
		d.logger.Info("evidence file indexed", zap.String("file", event.Name))
	}
}

func (d *DirIndex) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	text, err := parsing.ExtractText(strings.ToLower(filepath.Ext(path)), data)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", path, err)
	}
	d.Add(filepath.Base(path), text)
	return nil
}
