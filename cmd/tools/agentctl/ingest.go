package main

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/agentdesk/backend/internal/service/docindex"
)

func (c *cli) newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>",
		Short: "Check that a document loads and report how it is chunked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := docindex.LoadFile(args[0])
			if err != nil {
				return err
			}

			store, err := docindex.NewStore(docindex.Options{
				ChunkSize:    c.cfg.RAG.ChunkSize,
				ChunkOverlap: c.cfg.RAG.ChunkOverlap,
				TopK:         c.cfg.RAG.TopK,
				EmbeddingDim: c.cfg.RAG.EmbeddingDim,
			})
			if err != nil {
				return err
			}

			chunks, err := store.IngestDocuments(cmd.Context(), []*schema.Document{doc})
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "%s: %d characters, %d chunks\n", doc.ID, len([]rune(doc.Content)), chunks)
			fmt.Fprintln(c.out, docindex.StatusProcessed)
			return nil
		},
	}
}
