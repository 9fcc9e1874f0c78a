package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askbase/internal/core/domain"
)

var (
	ingestSourceID string
	ingestTitle    string
	ingestOrigin   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest extracted text into the tenant's index",
	Long: `Reads plain text from a file (or stdin when no file is given),
chunks it, embeds it and indexes it under the tenant's partition.
The text must already be extracted; askbase does not parse file
formats or fetch pages.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSourceID, "source-id", "", "source identifier (assigned automatically when omitted)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "human-readable title for the source")
	ingestCmd.Flags().StringVar(&ingestOrigin, "origin", "upload", "where the text came from: upload or scrape")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	var (
		data  []byte
		err   error
		title = ingestTitle
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		if title == "" {
			title = args[0]
		}
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	text := domain.ExtractedText{
		SourceID: ingestSourceID,
		Title:    title,
		Origin:   domain.SourceOrigin(ingestOrigin),
		Text:     string(data),
	}

	result, err := ingestService.Ingest(cmd.Context(), flagTenant, text)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("Ingested %s: %d chunks\n", result.Source.ID, result.ChunkCount)
	return nil
}
