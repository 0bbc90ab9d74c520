package rag

import (
	"context"
	"fmt"

	"github.com/v7mdd/MoodleMate/internal/embedding"
	"github.com/v7mdd/MoodleMate/internal/models"
)

// Retriever returns the k chunks most similar to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.RetrievedChunk, error)
}

// Index is the read side of the embedding index.
type Index interface {
	Query(ctx context.Context, queryEmbedding []float32, k int) ([]models.RetrievedChunk, error)
}

// IndexRetriever embeds queries with the same embedder used at ingest time.
type IndexRetriever struct {
	index    Index
	embedder embedding.Embedder
}

func NewRetriever(index Index, embedder embedding.Embedder) *IndexRetriever {
	return &IndexRetriever{index: index, embedder: embedder}
}

func (r *IndexRetriever) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievedChunk, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", models.ErrRetrieval, err)
	}

	chunks, err := r.index.Query(ctx, queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRetrieval, err)
	}
	return chunks, nil
}
