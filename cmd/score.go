package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/diligence-cli/internal/diligence"
	"github.com/sells-group/diligence-cli/internal/docload"
	"github.com/sells-group/diligence-cli/internal/model"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a company against a criteria schema",
	Long: `Runs the full diligence pipeline for one company: loads source
material from a directory, extracts and merges metrics, derives independent
market intelligence, scores every criterion via the reasoning service, and
calibrates the result.

Examples:
  # Score from a data-room export
  diligence-cli score --name "Acme Robotics" --docs ./dataroom --schema criteria.yaml

  # Rescore with persisted continuity
  diligence-cli score --name "Acme Robotics" --docs ./dataroom --schema criteria.yaml \
    --previous prior-score.json --metrics prior-metrics.json`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("name", "", "company name (required)")
	f.String("url", "", "company website URL")
	f.String("sector", "", "sector hint for market estimation")
	f.String("docs", "", "directory of source documents (required)")
	f.String("schema", "", "criteria schema YAML path (required)")
	f.String("previous", "", "prior DiligenceScore JSON for rescore continuity")
	f.String("metrics", "", "prior MetricSet JSON (source of truth)")
	f.String("output", "", "output file path (default: stdout)")
	scoreCmd.MarkFlagRequired("name")
	scoreCmd.MarkFlagRequired("docs")
	scoreCmd.MarkFlagRequired("schema")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
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
	schemaPath, _ := f.GetString("schema")
	previousPath, _ := f.GetString("previous")
	metricsPath, _ := f.GetString("metrics")
	outputPath, _ := f.GetString("output")

	schema, err := model.LoadCriteriaSchema(schemaPath)
	if err != nil {
		return err
	}
	docs, err := docload.LoadDir(docsDir)
	if err != nil {
		return err
	}

	req := diligence.ScoreRequest{
		CompanyName: name,
		CompanyURL:  url,
		Sector:      sector,
		Schema:      schema,
		Documents:   docs,
	}
	if previousPath != "" {
		req.Previous = &model.DiligenceScore{}
		if err := readJSONFile(previousPath, req.Previous); err != nil {
			return err
		}
	}
	if metricsPath != "" {
		req.SourceOfTruthMetrics = &model.MetricSet{}
		if err := readJSONFile(metricsPath, req.SourceOfTruthMetrics); err != nil {
			return err
		}
	}

	result, err := e.Service.Score(ctx, req)
	if err != nil {
		return err
	}

	zap.L().Info("scored",
		zap.String("company", name),
		zap.Float64("overall", result.Score.Overall),
	)
	return writeJSON(outputPath, result)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "parse %s", path)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal output")
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}
