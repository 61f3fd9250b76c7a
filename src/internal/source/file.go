// FILE: src/internal/source/file.go
package source

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"quantumlog/src/internal/transport"

	"github.com/lixenwraith/log"
)

// FileSource replays the inline channel of a saved HTML page.
// Files have no cookie jar, so the fragmented channel is always empty.
type FileSource struct {
	path   string
	logger *log.Logger

	mu      sync.Mutex
	size    int64
	modTime time.Time
	payload string
}

// NewFileSource creates a source for path. The file may not exist yet.
func NewFileSource(path string, logger *log.Logger) (*FileSource, error) {
	if path == "" {
		return nil, fmt.Errorf("file source requires a path")
	}
	return &FileSource{path: path, logger: logger}, nil
}

// Refresh re-reads the file when its size or modification time changed
func (f *FileSource) Refresh(_ context.Context) error {
	info, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet, keep watching
			return nil
		}
		return fmt.Errorf("stat %s: %w", f.path, err)
	}

	f.mu.Lock()
	unchanged := info.Size() == f.size && info.ModTime().Equal(f.modTime)
	f.mu.Unlock()
	if unchanged {
		return nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		f.logger.Error("msg", "Failed to read page file",
			"component", "file_source",
			"path", f.path,
			"error", err)
		return err
	}

	f.mu.Lock()
	f.size = info.Size()
	f.modTime = info.ModTime()
	f.payload = transport.ReadInline(string(data))
	f.mu.Unlock()

	f.logger.Debug("msg", "Page file reloaded",
		"component", "file_source",
		"path", f.path,
		"size", info.Size())
	return nil
}

func (f *FileSource) ReadFragmented() string {
	return ""
}

func (f *FileSource) ReadInline() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payload
}
