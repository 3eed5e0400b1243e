package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/config"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driving"
)

var (
	indexFresh bool
	indexWatch bool
)

var indexCmd = &cobra.Command{
	Use:   "index PATH",
	Short: "Index a directory of documents",
	Long: `Loads every .txt, .md, .pdf and .docx file under PATH, splits them into
overlapping chunks and stores their embeddings in the vector index.

Indexing is incremental: chunks already in the index are skipped, so
re-running the command on unchanged files makes no embedding calls.
Use --fresh to rebuild the index from scratch and --watch to keep it in
sync while files change.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().Int("chunk-size", domain.DefaultChunkSize, "maximum characters per chunk")
	indexCmd.Flags().Int("chunk-overlap", domain.DefaultChunkOverlap, "characters shared by consecutive chunks")
	indexCmd.Flags().BoolVar(&indexFresh, "fresh", false, "clear the index before indexing")
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "keep watching PATH and re-index changed files")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := args[0]

	if err := overrideInt(cmd, "chunk-size", config.KeyChunkSize); err != nil {
		return err
	}
	if err := overrideInt(cmd, "chunk-overlap", config.KeyChunkOverlap); err != nil {
		return err
	}
	if err := openServices(cmd, NeedIndex|NeedEmbedding); err != nil {
		return err
	}
	if documentLoader == nil {
		return errors.New("document loader not configured")
	}
	if indexingService == nil {
		return errors.New("indexing service not configured")
	}

	ctx := commandContext(cmd)
	c := newConsole(cmd)
	settings := currentSettings()

	c.printf("Loading documents from %s...\n", path)
	docs, err := documentLoader.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("%w in %s", domain.ErrNoDocuments, path)
	}
	c.printf("Loaded %d documents\n", len(docs))

	bar := newProgressReporter(c)
	opts := domain.IndexOptions{
		ChunkSize:    settings.ChunkSize,
		ChunkOverlap: settings.ChunkOverlap,
		Fresh:        indexFresh,
		Progress:     bar.Report,
	}

	summary, err := indexingService.Index(ctx, docs, opts)
	bar.Finish()
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	printSummary(c, summary)

	if !indexWatch {
		return nil
	}
	opts.Progress = nil
	return watchDirectory(ctx, c, path, opts)
}

func printSummary(c *console, summary *domain.IndexSummary) {
	if summary.UpToDate() {
		c.success("All documents already indexed. Nothing to do.")
		return
	}
	c.success(fmt.Sprintf("Indexed %d new chunks from %d documents", summary.ChunksAdded, summary.DocumentsProcessed))
	c.muted(fmt.Sprintf("%d chunks total, %s", summary.ChunksTotal, summary.Elapsed.Round(time.Millisecond)))
}

// watchDirectory re-indexes changed files until interrupted.
func watchDirectory(ctx context.Context, c *console, path string, opts domain.IndexOptions) error {
	if watchService == nil {
		return errors.New("watch service not configured")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.printf("Watching %s for changes (Ctrl+C to stop)...\n", path)
	err := watchService.Watch(ctx, path, opts, func(ev driving.WatchEvent) {
		for _, ch := range ev.Changes {
			c.muted(fmt.Sprintf("  %s %s", ch.Type, ch.Document.URI))
		}
		switch {
		case ev.Err != nil:
			c.warn(fmt.Sprintf("Re-index failed: %v", ev.Err))
		case ev.Summary != nil && !ev.Summary.UpToDate():
			c.success(fmt.Sprintf("Re-indexed %d chunks (%d stale removed)", ev.Summary.ChunksAdded, ev.Removed))
		default:
			c.muted(fmt.Sprintf("Removed %d stale chunks", ev.Removed))
		}
	})
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	return nil
}
