package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askbase/internal/core/ports/driving"
)

var (
	askTopK     int
	askMinScore float64
	askShowRefs bool
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the tenant's indexed material",
	Long: `Embeds the question, retrieves the most relevant passages from the
tenant's index and synthesizes an answer grounded only on them. When
nothing relevant is indexed, reports that instead of guessing.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "maximum passages to ground the answer on (0 = default)")
	askCmd.Flags().Float64Var(&askMinScore, "min-score", 0, "relevance threshold (0 = default)")
	askCmd.Flags().BoolVar(&askShowRefs, "refs", false, "show the retrieved passages under the answer")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	if queryService == nil {
		return errors.New("query service not configured")
	}

	opts := driving.AskOptions{
		TopK:     askTopK,
		MinScore: askMinScore,
	}

	result, err := queryService.Ask(cmd.Context(), flagTenant, question, opts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if askJSON {
		return outputAskJSON(cmd, result)
	}

	cmd.Println(result.Answer.Text)

	if askShowRefs && !result.Retrieved.Empty() {
		cited := make(map[string]bool, len(result.Answer.CitedChunkIDs))
		for _, id := range result.Answer.CitedChunkIDs {
			cited[id] = true
		}

		cmd.Println()
		cmd.Println("References:")
		for i, chunk := range result.Retrieved.Chunks {
			marker := " "
			if cited[chunk.Entry.ChunkID] {
				marker = "*"
			}
			cmd.Printf("  [S%d]%s %s (%.2f)\n", i+1, marker, chunk.Entry.SourceID, chunk.Score)
		}
	}

	return nil
}

func outputAskJSON(cmd *cobra.Command, result *driving.AskResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
