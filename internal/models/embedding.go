package models

// Page is the raw text of one page of a loaded document. Number is 0-indexed.
type Page struct {
	Number int
	Text   string
}

// Document is a loaded source file.
type Document struct {
	Path  string
	Pages []Page
}

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Content    string
	Source     string
	PageNumber int
	StartIndex int
	ChunkID    int
}

// ChunkEmbedding pairs a chunk with its embedding vector.
type ChunkEmbedding struct {
	Chunk
	Embedding []float32
}

// RetrievedChunk is a chunk returned by a similarity lookup.
type RetrievedChunk struct {
	Content    string
	Source     string
	PageNumber int
	Similarity float32
}
