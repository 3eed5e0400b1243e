// Package filesystem reads documents from a local directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rag-cli/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// MIME types of the supported document formats.
const (
	MIMEPlainText = "text/plain"
	MIMEMarkdown  = "text/markdown"
	MIMEPDF       = "application/pdf"
	MIMEDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// supported maps lower-case extensions to MIME types. Other files are ignored.
var supported = map[string]string{
	".txt":  MIMEPlainText,
	".md":   MIMEMarkdown,
	".pdf":  MIMEPDF,
	".docx": MIMEDOCX,
}

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("connector is closed")

// Connector walks a directory recursively in lexical order and watches it
// for changes. Hidden files and directories are skipped.
type Connector struct {
	rootPath string

	mu       sync.Mutex
	closed   bool
	watchers []*fsnotify.Watcher
}

// New creates a connector rooted at rootPath.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// Root returns the directory the connector reads.
func (c *Connector) Root() string {
	return c.rootPath
}

// Validate checks the root exists and is a directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(c.rootPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: path does not exist: %s", domain.ErrNotFound, c.rootPath)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: not a directory: %s", domain.ErrInvalidInput, c.rootPath)
	}
	return nil
}

// FullSync reads every supported file under the root. Unreadable files
// are logged and skipped; a walk failure is sent on the error channel.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		// WalkDir visits entries in lexical order, which keeps chunk
		// indexing deterministic across runs.
		err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == c.rootPath {
					return err
				}
				logger.Warn("Skipping %s: %v", path, err)
				return nil
			}
			if path != c.rootPath && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			raw, ok := c.read(path)
			if !ok {
				return nil
			}
			select {
			case docs <- *raw:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return docs, errs
}

// Watch streams changes to supported files until ctx is cancelled.
// Directories created after Watch starts are watched too.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	info, err := os.Stat(c.rootPath)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %w: not a directory", domain.ErrInvalidInput)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addTree(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}

	c.mu.Lock()
	c.watchers = append(c.watchers, watcher)
	c.mu.Unlock()

	changes := make(chan domain.RawDocumentChange, 64)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) && isDir(event.Name) && !isHidden(filepath.Base(event.Name)) {
					if err := c.addTree(watcher, event.Name); err != nil {
						logger.Warn("Cannot watch %s: %v", event.Name, err)
					}
					// Files can land in a new directory before it is watched.
					for _, change := range c.scanNew(event.Name) {
						if !send(ctx, changes, change) {
							return
						}
					}
					continue
				}
				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				if !send(ctx, changes, *change) {
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watch error: %v", err)
			}
		}
	}()

	return changes, nil
}

// Close stops every watcher. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	for _, w := range c.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.watchers = nil
	return errors.Join(errs...)
}

// handleFsEvent converts a filesystem event into a change, or nil when
// the event is irrelevant.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	if c.skip(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.RawDocumentChange{
			Type: domain.ChangeDeleted,
			Document: domain.RawDocument{
				URI:      event.Name,
				MIMEType: detectMIMEType(event.Name),
			},
		}

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if isDir(event.Name) {
			return nil
		}
		raw, ok := c.read(event.Name)
		if !ok {
			return nil
		}
		changeType := domain.ChangeUpdated
		if event.Has(fsnotify.Create) {
			changeType = domain.ChangeCreated
		}
		return &domain.RawDocumentChange{Type: changeType, Document: *raw}

	default:
		// Chmod alone does not change content.
		return nil
	}
}

// skip reports whether path is hidden below the root or unsupported.
func (c *Connector) skip(path string) bool {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		rel = path
	}
	if isHidden(rel) {
		return true
	}
	_, ok := supported[strings.ToLower(filepath.Ext(path))]
	return !ok
}

// read loads a supported file. It returns false for unsupported,
// hidden or unreadable files.
func (c *Connector) read(path string) (*domain.RawDocument, bool) {
	if c.skip(path) {
		return nil, false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Skipping %s: %v", path, err)
		return nil, false
	}
	return &domain.RawDocument{
		URI:      path,
		MIMEType: detectMIMEType(path),
		Content:  content,
		Metadata: map[string]any{"filename": filepath.Base(path)},
	}, true
}

// addTree watches dir and every non-hidden directory below it.
func (c *Connector) addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.rootPath && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// scanNew reports the supported files already inside a new directory.
func (c *Connector) scanNew(dir string) []domain.RawDocumentChange {
	var out []domain.RawDocumentChange
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			if d != nil && d.IsDir() && path != dir && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if raw, ok := c.read(path); ok {
			out = append(out, domain.RawDocumentChange{Type: domain.ChangeCreated, Document: *raw})
		}
		return nil
	})
	return out
}

func send(ctx context.Context, ch chan<- domain.RawDocumentChange, change domain.RawDocumentChange) bool {
	select {
	case ch <- change:
		return true
	case <-ctx.Done():
		return false
	}
}

// Supported reports whether path has a supported extension.
func Supported(path string) bool {
	_, ok := supported[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SupportedExtensions lists the extensions the connector reads.
func SupportedExtensions() []string {
	return []string{".docx", ".md", ".pdf", ".txt"}
}

// detectMIMEType maps a filename to a MIME type, case-insensitively.
func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return MIMEPlainText
	}
	if t, ok := supported[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		// Strip parameters like "; charset=utf-8"
		if base, _, found := strings.Cut(t, ";"); found {
			return strings.TrimSpace(base)
		}
		return t
	}
	return "application/octet-stream"
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
