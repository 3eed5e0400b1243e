package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driving"
	"github.com/custodia-labs/rag-cli/internal/logger"
)

// Ensure DocumentLoader implements the interface.
var _ driving.DocumentLoader = (*DocumentLoader)(nil)

// ConnectorFactory opens a connector rooted at a directory.
type ConnectorFactory func(root string) driven.Connector

// DocumentLoader reads a directory through a connector and extracts text
// with the normaliser registry.
type DocumentLoader struct {
	newConnector ConnectorFactory
	normalisers  driven.NormaliserRegistry
}

// NewDocumentLoader creates a document loader.
func NewDocumentLoader(newConnector ConnectorFactory, normalisers driven.NormaliserRegistry) *DocumentLoader {
	return &DocumentLoader{newConnector: newConnector, normalisers: normalisers}
}

// Load returns every non-blank supported document under root in the
// connector's order. Files that fail to normalise are logged and skipped.
func (l *DocumentLoader) Load(ctx context.Context, root string) ([]domain.Document, error) {
	defer logger.Stage("Loading documents")()

	conn := l.newConnector(root)
	defer conn.Close()

	if err := conn.Validate(ctx); err != nil {
		return nil, err
	}

	docsCh, errsCh := conn.FullSync(ctx)
	var docs []domain.Document
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", root, err)
			}

		case raw, ok := <-docsCh:
			if !ok {
				// The connector reports walk failures before closing docs.
				if errsCh != nil {
					if err, ok := <-errsCh; ok && err != nil {
						return nil, fmt.Errorf("read %s: %w", root, err)
					}
				}
				logger.Debug("Loaded %d documents from %s", len(docs), root)
				return docs, nil
			}
			doc, err := l.Normalise(ctx, &raw)
			if err != nil {
				logger.Warn("Skipping %s: %v", raw.URI, err)
				continue
			}
			if doc == nil {
				logger.Debug("Skipping blank %s", raw.URI)
				continue
			}
			docs = append(docs, *doc)
		}
	}
}

// Normalise extracts a document from raw. It returns nil without error
// for blank content.
func (l *DocumentLoader) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	doc, err := l.normalisers.Normalise(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedType) {
			return nil, fmt.Errorf("%w: %s", err, raw.MIMEType)
		}
		return nil, err
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}
	return doc, nil
}
