package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/v7mdd/MoodleMate/internal/chromemdb"
	"github.com/v7mdd/MoodleMate/internal/embedding"
	"github.com/v7mdd/MoodleMate/internal/models"
	"github.com/v7mdd/MoodleMate/internal/parser"
)

// Ingestor rebuilds the embedding index from a directory of course files.
// It must not run while queries are being served against the same index.
type Ingestor struct {
	loaders        parser.Loaders
	chunker        *parser.Chunker
	embedder       embedding.Embedder
	embeddingModel string
	indexPath      string
	collection     string
	now            func() time.Time
}

type Options struct {
	Loaders        parser.Loaders
	Chunker        *parser.Chunker
	Embedder       embedding.Embedder
	EmbeddingModel string
	IndexPath      string
	Collection     string
}

func New(opts Options) *Ingestor {
	return &Ingestor{
		loaders:        opts.Loaders,
		chunker:        opts.Chunker,
		embedder:       opts.Embedder,
		embeddingModel: opts.EmbeddingModel,
		indexPath:      opts.IndexPath,
		collection:     opts.Collection,
		now:            time.Now,
	}
}

// Ingest discovers, loads, chunks and embeds every supported file directly in
// sourceDir and replaces the persisted index. Any failure aborts the run and
// leaves the previous index in place.
func (i *Ingestor) Ingest(ctx context.Context, sourceDir string) (models.IndexSummary, error) {
	files, err := i.discover(sourceDir)
	if err != nil {
		return models.IndexSummary{}, err
	}
	if len(files) == 0 {
		return models.IndexSummary{}, fmt.Errorf("%w in %s (extensions %s)",
			models.ErrNoDocuments, sourceDir, strings.Join(i.loaders.Extensions(), ", "))
	}
	log.Info().Int("files", len(files)).Str("dir", sourceDir).Msg("Found documents")

	docs := make([]models.Document, 0, len(files))
	pages := 0
	for _, f := range files {
		log.Debug().Str("file", f).Msg("Loading document")
		doc, err := i.loaders.Load(f)
		if err != nil {
			return models.IndexSummary{}, err
		}
		pages += len(doc.Pages)
		docs = append(docs, doc)
	}
	log.Info().Int("pages", pages).Msg("Loaded pages")

	chunks := i.chunker.SplitAll(docs)
	log.Info().Int("chunks", len(chunks)).Msg("Split text")

	chunkEmbeddings, err := embedding.GenerateEmbedding(ctx, i.embedder, chunks)
	if err != nil {
		return models.IndexSummary{}, err
	}

	summary := models.IndexSummary{
		DocumentCount: len(docs),
		ChunkCount:    len(chunks),
		BuiltAt:       i.now().UTC(),
	}
	manifest := chromemdb.Manifest{
		EmbeddingModel: i.embeddingModel,
		ChunkSize:      i.chunker.ChunkSize(),
		ChunkOverlap:   i.chunker.ChunkOverlap(),
		DocumentCount:  summary.DocumentCount,
		BuiltAt:        summary.BuiltAt,
	}
	if err := chromemdb.Build(ctx, i.indexPath, i.collection, manifest, chunkEmbeddings); err != nil {
		return models.IndexSummary{}, err
	}

	log.Info().
		Int("documents", summary.DocumentCount).
		Int("chunks", summary.ChunkCount).
		Str("index", i.indexPath).
		Msg("Index rebuilt")
	return summary, nil
}

// non-recursive, sorted for reproducible chunk order
func (i *Ingestor) discover(sourceDir string) ([]string, error) {
	entries, err := os.ReadDir(sourceDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: directory %s does not exist", models.ErrNoDocuments, sourceDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := i.loaders[ext]; ok {
			files = append(files, filepath.Join(sourceDir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
