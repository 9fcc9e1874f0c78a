package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage ingested sources",
	Long:  `Commands for listing and removing the tenant's ingested sources.`,
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tenant's sources",
	RunE:  runSourceList,
}

var sourceDeleteCmd = &cobra.Command{
	Use:   "delete [source-id]",
	Short: "Delete a source and its indexed chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceDelete,
}

var wipeForce bool

var sourceWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every source and index entry for the tenant",
	RunE:  runSourceWipe,
}

func init() {
	sourceWipeCmd.Flags().BoolVarP(&wipeForce, "force", "f", false, "skip the confirmation prompt")
	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceDeleteCmd)
	sourceCmd.AddCommand(sourceWipeCmd)
	rootCmd.AddCommand(sourceCmd)
}

func runSourceList(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	sources, err := ingestService.ListSources(cmd.Context(), flagTenant)
	if err != nil {
		return fmt.Errorf("listing sources: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No sources ingested.")
		return nil
	}

	cmd.Printf("Sources for tenant %s:\n\n", flagTenant)
	for _, source := range sources {
		title := source.Title
		if title == "" {
			title = "(untitled)"
		}
		cmd.Printf("  %s  %s\n", source.ID, title)
		cmd.Printf("      origin: %s, chunks: %d, ingested: %s\n",
			source.Origin, source.ChunkCount, source.IngestedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runSourceDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	sourceID := args[0]
	if err := ingestService.DeleteSource(cmd.Context(), flagTenant, sourceID); err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}

	cmd.Printf("Deleted source %s\n", sourceID)
	return nil
}

func runSourceWipe(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if !wipeForce {
		cmd.Printf("This removes ALL sources and index entries for tenant %q. Continue? [y/N]: ", flagTenant)
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading confirmation: %w", err)
		}
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := ingestService.DeleteTenant(cmd.Context(), flagTenant); err != nil {
		return fmt.Errorf("wiping tenant: %w", err)
	}

	cmd.Printf("Wiped tenant %s\n", flagTenant)
	return nil
}
