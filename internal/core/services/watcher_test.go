package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driving"
)

func newTestWatcher(conn *mockConnector, indexer *mockIndexer) *Watcher {
	factory := func(string) driven.Connector { return conn }
	loader := NewDocumentLoader(factory, mockNormaliserRegistry{})
	return NewWatcher(factory, loader, indexer).WithDebounce(20 * time.Millisecond)
}

func change(t domain.ChangeType, uri, content string) domain.RawDocumentChange {
	return domain.RawDocumentChange{Type: t, Document: domain.RawDocument{
		URI: uri, MIMEType: "text/plain", Content: []byte(content),
	}}
}

func TestWatcher_DebouncesAndReindexes(t *testing.T) {
	conn := &mockConnector{changes: make(chan domain.RawDocumentChange, 8)}
	indexer := &mockIndexer{}
	w := newTestWatcher(conn, indexer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn.changes <- change(domain.ChangeCreated, "docs/b.txt", "first")
	conn.changes <- change(domain.ChangeUpdated, "docs/b.txt", "second")
	conn.changes <- change(domain.ChangeDeleted, "docs/a.txt", "")

	events := make(chan driving.WatchEvent, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, "docs", domain.IndexOptions{ChunkSize: 100, ChunkOverlap: 10, Fresh: true},
			func(e driving.WatchEvent) { events <- e })
	}()

	var event driving.WatchEvent
	select {
	case event = <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("no watch event")
	}

	require.NoError(t, event.Err)
	require.Len(t, event.Changes, 2, "changes to one file are coalesced")
	assert.Equal(t, "docs/a.txt", event.Changes[0].Document.URI)
	assert.Equal(t, "docs/b.txt", event.Changes[1].Document.URI)
	assert.Equal(t, 4, event.Removed)
	require.NotNil(t, event.Summary)

	indexer.mu.Lock()
	assert.Equal(t, []string{"docs/a.txt", "docs/b.txt"}, indexer.forgotten)
	require.Len(t, indexer.indexed, 1)
	assert.Equal(t, []domain.Document{{Content: "second", Source: "docs/b.txt"}}, indexer.indexed[0])
	assert.False(t, indexer.opts[0].Fresh, "fresh only applies to the initial pass")
	indexer.mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.True(t, conn.closed)
}

func TestWatcher_ForgetErrorSkipsIndexing(t *testing.T) {
	conn := &mockConnector{changes: make(chan domain.RawDocumentChange, 1)}
	indexer := &mockIndexer{forgetErr: domain.ErrVectorIndexUnavailable}
	w := newTestWatcher(conn, indexer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan driving.WatchEvent, 1)
	go func() {
		_ = w.Watch(ctx, "docs", domain.IndexOptions{}, func(e driving.WatchEvent) { events <- e })
	}()
	conn.changes <- change(domain.ChangeUpdated, "docs/x.txt", "x")

	select {
	case event := <-events:
		assert.ErrorIs(t, event.Err, domain.ErrVectorIndexUnavailable)
		assert.Nil(t, event.Summary)
	case <-time.After(2 * time.Second):
		t.Fatal("no watch event")
	}

	indexer.mu.Lock()
	defer indexer.mu.Unlock()
	assert.Empty(t, indexer.indexed)
}

func TestWatcher_WatchError(t *testing.T) {
	cause := errors.New("inotify limit")
	w := newTestWatcher(&mockConnector{watchErr: cause}, &mockIndexer{})

	err := w.Watch(context.Background(), "docs", domain.IndexOptions{}, nil)
	assert.ErrorIs(t, err, cause)
}

func TestWatcher_StopsWhenChangesClose(t *testing.T) {
	conn := &mockConnector{changes: make(chan domain.RawDocumentChange)}
	close(conn.changes)

	err := newTestWatcher(conn, &mockIndexer{}).Watch(context.Background(), "docs", domain.IndexOptions{}, nil)
	assert.NoError(t, err)
}
