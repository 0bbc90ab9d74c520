package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/v7mdd/MoodleMate/internal/config"
	"github.com/v7mdd/MoodleMate/internal/embedding"
	"github.com/v7mdd/MoodleMate/internal/helper"
	"github.com/v7mdd/MoodleMate/internal/ingest"
	"github.com/v7mdd/MoodleMate/internal/parser"
)

var (
	ingestSource string
	ingestJSON   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Rebuild the index from the course directory",
	Long: `Loads every supported file directly inside the source directory, splits it
into overlapping chunks, embeds them and replaces the persisted index.
The previous index is kept if anything fails. Do not run while answering.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestSource, "source", "s", "", "course directory (overrides ingest.source_dir)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	sourceDir := cfg.Ingest.SourceDir
	if ingestSource != "" {
		sourceDir = ingestSource
	}

	loaders, err := parser.DefaultLoaders().Only(cfg.Ingest.Extensions)
	if err != nil {
		return err
	}
	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		return err
	}

	ingestor := ingest.New(ingest.Options{
		Loaders:        loaders,
		Chunker:        parser.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap),
		Embedder:       embedder,
		EmbeddingModel: cfg.Embedding.Identity(),
		IndexPath:      cfg.Index.Path,
		Collection:     cfg.Index.Collection,
	})

	summary, err := ingestor.Ingest(context.Background(), sourceDir)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		return helper.PrettyPrint(cmd.OutOrStdout(), summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents into %d chunks at %s\n", summary.DocumentCount, summary.ChunkCount, cfg.Index.Path)
	return nil
}
