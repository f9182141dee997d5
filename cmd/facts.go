package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/diligence-cli/internal/diligence"
	"github.com/sells-group/diligence-cli/internal/docload"
	"github.com/sells-group/diligence-cli/internal/model"
)

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Extract structured facts and metrics from source documents",
	Long: `Runs the deterministic extractors alone: metric keyword lines plus
the derived metric set. No reasoning-service calls are made.`,
	RunE: runFacts,
}

func init() {
	f := factsCmd.Flags()
	f.String("docs", "", "directory of source documents (required)")
	f.String("output", "", "output file path (default: stdout)")
	factsCmd.MarkFlagRequired("docs")

	rootCmd.AddCommand(factsCmd)
}

func runFacts(cmd *cobra.Command, _ []string) error {
	// Extraction is fully deterministic; no client or learning store needed.
	svc := diligence.NewService(nil, nil, cfg)

	docsDir, _ := cmd.Flags().GetString("docs")
	outputPath, _ := cmd.Flags().GetString("output")

	docs, err := docload.LoadDir(docsDir)
	if err != nil {
		return err
	}

	facts, metricSet := svc.ExtractStructuredFacts(docs, nil)
	return writeJSON(outputPath, struct {
		Facts   []string         `json:"facts"`
		Metrics *model.MetricSet `json:"metrics"`
	}{Facts: facts, Metrics: metricSet})
}
