// Package cli provides the askbase command-line interface built on
// cobra. Commands talk to the core through the driving ports; wiring
// happens in cmd/askbase.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/askbase/internal/core/ports/driving"
	"github.com/custodia-labs/askbase/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by cmd/askbase before Execute.
var (
	ingestService driving.Ingestor
	queryService  driving.Querier
)

// Persistent flag values.
var (
	flagVerbose bool
	flagTenant  string
)

var rootCmd = &cobra.Command{
	Use:   "askbase",
	Short: "Ask questions over your own documents",
	Long: `Askbase is a multi-tenant retrieval-augmented query pipeline.
Ingest extracted text, then ask natural-language questions answered
only from the material you indexed.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging to stderr")
	rootCmd.PersistentFlags().StringVarP(&flagTenant, "tenant", "t", "default", "tenant to operate on")
}

// SetServices injects the driving ports the commands run against.
func SetServices(ingestor driving.Ingestor, querier driving.Querier) {
	ingestService = ingestor
	queryService = querier
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
