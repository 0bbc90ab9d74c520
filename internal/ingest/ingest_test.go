package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v7mdd/MoodleMate/internal/chromemdb"
	"github.com/v7mdd/MoodleMate/internal/config"
	"github.com/v7mdd/MoodleMate/internal/embedding"
	"github.com/v7mdd/MoodleMate/internal/models"
	"github.com/v7mdd/MoodleMate/internal/parser"
)

const testModel = "hash/fnv"

// textLoader treats each file as plain text with pages separated by form feeds.
func textLoader(path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, err
	}
	doc := models.Document{Path: path}
	for i, page := range strings.Split(string(data), "\f") {
		doc.Pages = append(doc.Pages, models.Page{Number: i, Text: page})
	}
	return doc, nil
}

func failingLoader(path string) (models.Document, error) {
	return models.Document{}, errors.New("malformed xref table")
}

type testEnv struct {
	sourceDir string
	indexPath string
	ingestor  *Ingestor
}

func newTestEnv(t *testing.T, loader parser.LoaderFunc, embedder embedding.Embedder) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		sourceDir: filepath.Join(root, "AI Module"),
		indexPath: filepath.Join(root, "chroma_db"),
	}
	require.NoError(t, os.MkdirAll(env.sourceDir, 0o755))

	if embedder == nil {
		e, err := embedding.NewEmbedder(&config.EmbeddingConfig{Provider: "hash", Model: "fnv", Dimensions: 128, BatchSize: 8})
		require.NoError(t, err)
		embedder = e
	}
	env.ingestor = New(Options{
		Loaders:        parser.Loaders{".pdf": loader},
		Chunker:        parser.NewChunker(100, 20),
		Embedder:       embedder,
		EmbeddingModel: testModel,
		IndexPath:      env.indexPath,
		Collection:     "course_material",
	})
	return env
}

func (e *testEnv) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.sourceDir, name), []byte(content), 0o644))
}

func TestIngest_BuildsIndex(t *testing.T) {
	env := newTestEnv(t, textLoader, nil)
	env.write(t, "week1.pdf", strings.Repeat("Supervised learning uses labelled data. ", 10)+"\f"+"Page two text.")
	env.write(t, "week2.PDF", "Reinforcement learning uses rewards.")
	env.write(t, "notes.txt", "ignored")
	require.NoError(t, os.MkdirAll(filepath.Join(env.sourceDir, "nested.pdf"), 0o755))

	summary, err := env.ingestor.Ingest(context.Background(), env.sourceDir)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.DocumentCount)
	assert.Greater(t, summary.ChunkCount, 3)

	idx, err := chromemdb.Open(env.indexPath, "course_material", testModel)
	require.NoError(t, err)
	assert.Equal(t, summary.ChunkCount, idx.Count())
	assert.Equal(t, 100, idx.Manifest().ChunkSize)
	assert.Equal(t, 20, idx.Manifest().ChunkOverlap)
	assert.Equal(t, 2, idx.Manifest().DocumentCount)
}

func TestIngest_Idempotent(t *testing.T) {
	env := newTestEnv(t, textLoader, nil)
	env.write(t, "week1.pdf", strings.Repeat("Neural networks learn weights. ", 20))

	first, err := env.ingestor.Ingest(context.Background(), env.sourceDir)
	require.NoError(t, err)
	second, err := env.ingestor.Ingest(context.Background(), env.sourceDir)
	require.NoError(t, err)

	assert.Equal(t, first.DocumentCount, second.DocumentCount)
	assert.Equal(t, first.ChunkCount, second.ChunkCount)
}

func TestIngest_NoDocuments(t *testing.T) {
	env := newTestEnv(t, textLoader, nil)
	env.write(t, "readme.md", "not a pdf")

	_, err := env.ingestor.Ingest(context.Background(), env.sourceDir)
	assert.ErrorIs(t, err, models.ErrNoDocuments)

	_, err = os.Stat(env.indexPath)
	assert.True(t, os.IsNotExist(err), "no index must be produced")
}

func TestIngest_MissingDirectory(t *testing.T) {
	env := newTestEnv(t, textLoader, nil)

	_, err := env.ingestor.Ingest(context.Background(), filepath.Join(env.sourceDir, "absent"))
	assert.ErrorIs(t, err, models.ErrNoDocuments)
}

func TestIngest_NoDocumentsKeepsPreviousIndex(t *testing.T) {
	env := newTestEnv(t, textLoader, nil)
	env.write(t, "week1.pdf", "Bayesian inference.")
	_, err := env.ingestor.Ingest(context.Background(), env.sourceDir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(env.sourceDir, "week1.pdf")))
	_, err = env.ingestor.Ingest(context.Background(), env.sourceDir)
	require.ErrorIs(t, err, models.ErrNoDocuments)

	idx, err := chromemdb.Open(env.indexPath, "course_material", testModel)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Count())
}

func TestIngest_UnreadableFileFailsRun(t *testing.T) {
	env := newTestEnv(t, failingLoader, nil)
	env.write(t, "broken.pdf", "x")

	_, err := env.ingestor.Ingest(context.Background(), env.sourceDir)
	assert.ErrorContains(t, err, "malformed xref table")

	_, statErr := os.Stat(env.indexPath)
	assert.True(t, os.IsNotExist(statErr))
}

type downEmbedder struct{}

func (downEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("dial tcp 127.0.0.1:11434: connection refused")
}

func (downEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("dial tcp 127.0.0.1:11434: connection refused")
}

func TestIngest_EmbeddingServiceDown(t *testing.T) {
	env := newTestEnv(t, textLoader, downEmbedder{})
	env.write(t, "week1.pdf", "Clustering.")

	_, err := env.ingestor.Ingest(context.Background(), env.sourceDir)
	assert.ErrorContains(t, err, "connection refused")

	_, statErr := os.Stat(env.indexPath)
	assert.True(t, os.IsNotExist(statErr))
}
