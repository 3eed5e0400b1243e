package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driving"
	"github.com/custodia-labs/rag-cli/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driving.WatchService = (*Watcher)(nil)

// DefaultDebounce is how long the watcher waits for further changes
// before re-indexing.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-indexes files as they change. Every changed source has its
// stored chunks removed first, so edits replace stale text instead of
// keeping the old ids.
type Watcher struct {
	newConnector ConnectorFactory
	loader       *DocumentLoader
	indexer      driving.IndexingService
	debounce     time.Duration
}

// NewWatcher creates a watcher.
func NewWatcher(newConnector ConnectorFactory, loader *DocumentLoader, indexer driving.IndexingService) *Watcher {
	return &Watcher{
		newConnector: newConnector,
		loader:       loader,
		indexer:      indexer,
		debounce:     DefaultDebounce,
	}
}

// WithDebounce overrides the debounce interval.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch blocks until ctx is cancelled.
func (w *Watcher) Watch(
	ctx context.Context, root string, opts domain.IndexOptions, notify func(driving.WatchEvent),
) error {
	conn := w.newConnector(root)
	defer conn.Close()

	changes, err := conn.Watch(ctx)
	if err != nil {
		return err
	}
	// Fresh only applies to the initial pass.
	opts.Fresh = false

	pending := make(map[string]domain.RawDocumentChange)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case change, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("Change %s: %s", change.Type, change.Document.URI)
			pending[change.Document.URI] = change
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			batch := drain(pending)
			event := w.apply(ctx, batch, opts)
			if notify != nil {
				notify(event)
			}
		}
	}
}

// apply forgets every changed source and re-indexes the ones still present.
func (w *Watcher) apply(ctx context.Context, batch []domain.RawDocumentChange, opts domain.IndexOptions) driving.WatchEvent {
	event := driving.WatchEvent{Changes: batch}

	var docs []domain.Document
	var errs []error
	for _, change := range batch {
		n, err := w.indexer.Forget(ctx, change.Document.URI)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		event.Removed += n

		if change.Type == domain.ChangeDeleted {
			continue
		}
		raw := change.Document
		doc, err := w.loader.Normalise(ctx, &raw)
		if err != nil {
			logger.Warn("Skipping %s: %v", raw.URI, err)
			continue
		}
		if doc != nil {
			docs = append(docs, *doc)
		}
	}

	if len(errs) == 0 {
		summary, err := w.indexer.Index(ctx, docs, opts)
		if err != nil {
			errs = append(errs, err)
		}
		event.Summary = summary
	}
	event.Err = errors.Join(errs...)
	return event
}

// drain empties pending and returns its changes sorted by path.
func drain(pending map[string]domain.RawDocumentChange) []domain.RawDocumentChange {
	batch := make([]domain.RawDocumentChange, 0, len(pending))
	for uri, change := range pending {
		batch = append(batch, change)
		delete(pending, uri)
	}
	sort.Slice(batch, func(i, j int) bool {
		return batch[i].Document.URI < batch[j].Document.URI
	})
	return batch
}
