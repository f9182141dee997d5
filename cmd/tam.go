package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/diligence-cli/internal/diligence"
	"github.com/sells-group/diligence-cli/internal/docload"
)

var tamCmd = &cobra.Command{
	Use:   "tam",
	Short: "Run standalone market analysis for a company",
	Long: `Derives independent TAM/growth estimates and the founder-claim
alignment without running a full scoring pass.`,
	RunE: runTAM,
}

func init() {
	f := tamCmd.Flags()
	f.String("name", "", "company name (required)")
	f.String("url", "", "company website URL")
	f.String("sector", "", "sector hint for the benchmark tier")
	f.String("docs", "", "directory of source documents (required)")
	f.String("output", "", "output file path (default: stdout)")
	tamCmd.MarkFlagRequired("name")
	tamCmd.MarkFlagRequired("docs")

	rootCmd.AddCommand(tamCmd)
}

func runTAM(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	f := cmd.Flags()
	name, _ := f.GetString("name")
	url, _ := f.GetString("url")
	sector, _ := f.GetString("sector")
	docsDir, _ := f.GetString("docs")
	outputPath, _ := f.GetString("output")

	docs, err := docload.LoadDir(docsDir)
	if err != nil {
		return err
	}

	intel, err := e.Service.RunTAMAnalysis(ctx, diligence.TAMRequest{
		CompanyName: name,
		CompanyURL:  url,
		Sector:      sector,
		Documents:   docs,
	})
	if err != nil {
		return err
	}
	return writeJSON(outputPath, intel)
}
