package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/v7mdd/MoodleMate/internal/models"
)

const (
	manifestFile  = "manifest.yaml"
	stagingSuffix = ".staging"
	compress      = false

	metaSource     = "source"
	metaPage       = "page"
	metaStartIndex = "start_index"
)

// Manifest describes how a persisted index was built.
type Manifest struct {
	EmbeddingModel string    `yaml:"embedding_model"`
	ChunkSize      int       `yaml:"chunk_size"`
	ChunkOverlap   int       `yaml:"chunk_overlap"`
	DocumentCount  int       `yaml:"document_count"`
	ChunkCount     int       `yaml:"chunk_count"`
	BuiltAt        time.Time `yaml:"built_at"`
}

// VectorDBManager is a read-only handle on a persisted chromem-go collection.
type VectorDBManager struct {
	db         *chromem.DB
	collection *chromem.Collection
	manifest   Manifest
	dbPath     string
}

// Build writes a fresh index for docs into a staging directory next to dbPath
// and then swaps it in place of dbPath. Any previous index is discarded.
func Build(ctx context.Context, dbPath, collectionName string, manifest Manifest, docs []models.ChunkEmbedding) error {
	staging := filepath.Clean(dbPath) + stagingSuffix
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("failed to clear staging index: %w", err)
	}

	if err := writeIndex(ctx, staging, collectionName, manifest, docs); err != nil {
		os.RemoveAll(staging)
		return err
	}

	if err := os.RemoveAll(dbPath); err != nil {
		return fmt.Errorf("failed to remove previous index: %w", err)
	}
	if err := os.Rename(staging, dbPath); err != nil {
		return fmt.Errorf("failed to publish index: %w", err)
	}
	log.Debug().Str("path", dbPath).Int("chunks", len(docs)).Msg("Index published")
	return nil
}

func writeIndex(ctx context.Context, dir, collectionName string, manifest Manifest, docs []models.ChunkEmbedding) error {
	db, err := chromem.NewPersistentDB(dir, compress)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	// embeddings are always supplied, the collection never embeds on its own
	c, err := db.GetOrCreateCollection(collectionName, nil, refuseEmbedding)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, d := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Content:   d.Content,
			Metadata:  CreateMetadata(d.Chunk),
			Embedding: d.Embedding,
		}
	}
	if len(chromemDocs) > 0 {
		if err := c.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("failed to add documents: %w", err)
		}
	}

	manifest.ChunkCount = len(docs)
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func refuseEmbedding(context.Context, string) ([]float32, error) {
	return nil, errors.New("collection requires precomputed embeddings")
}

// CreateMetadata is the metadata persisted next to each chunk.
func CreateMetadata(chunk models.Chunk) map[string]string {
	return map[string]string{
		metaSource:     chunk.Source,
		metaPage:       strconv.Itoa(chunk.PageNumber),
		metaStartIndex: strconv.Itoa(chunk.StartIndex),
	}
}

// ReadManifest loads the manifest of the index at dbPath.
func ReadManifest(dbPath string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dbPath, manifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, fmt.Errorf("%w: %s", models.ErrIndexNotFound, dbPath)
		}
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return m, nil
}

// Open loads the index at dbPath. embeddingModel must equal the model the
// index was built with.
func Open(dbPath, collectionName, embeddingModel string) (*VectorDBManager, error) {
	manifest, err := ReadManifest(dbPath)
	if err != nil {
		return nil, err
	}
	if manifest.EmbeddingModel != embeddingModel {
		return nil, fmt.Errorf("%w: index at %s was built with embedding model %q, configured model is %q",
			models.ErrConfiguration, dbPath, manifest.EmbeddingModel, embeddingModel)
	}

	db, err := chromem.NewPersistentDB(dbPath, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	c := db.GetCollection(collectionName, refuseEmbedding)
	if c == nil {
		return nil, fmt.Errorf("%w: collection %s missing in %s", models.ErrIndexNotFound, collectionName, dbPath)
	}

	log.Debug().
		Str("path", dbPath).
		Str("collection", collectionName).
		Int("documents", c.Count()).
		Msg("Opened index")

	return &VectorDBManager{
		db:         db,
		collection: c,
		manifest:   manifest,
		dbPath:     dbPath,
	}, nil
}

func (m *VectorDBManager) Manifest() Manifest { return m.manifest }

func (m *VectorDBManager) Count() int { return m.collection.Count() }

// Query returns up to k chunks ordered by descending cosine similarity.
func (m *VectorDBManager) Query(ctx context.Context, queryEmbedding []float32, k int) ([]models.RetrievedChunk, error) {
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}
	n := min(k, m.collection.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := m.collection.QueryEmbedding(ctx, queryEmbedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	out := make([]models.RetrievedChunk, len(results))
	for i, r := range results {
		page, err := strconv.Atoi(r.Metadata[metaPage])
		if err != nil {
			return nil, fmt.Errorf("invalid page metadata on %s: %w", r.ID, err)
		}
		out[i] = models.RetrievedChunk{
			Content:    r.Content,
			Source:     r.Metadata[metaSource],
			PageNumber: page,
			Similarity: r.Similarity,
		}
	}
	return out, nil
}
