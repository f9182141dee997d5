package main

import (
	"encoding/csv"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/diligence-cli/internal/diligence"
	"github.com/sells-group/diligence-cli/internal/docload"
	"github.com/sells-group/diligence-cli/internal/model"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score multiple companies from a CSV manifest",
	Long: `Reads a CSV with header "name,url,sector,docs_dir" and scores each
company. Companies run concurrently; each company's reasoning-service calls
stay sequential.

Example:
  diligence-cli batch --manifest companies.csv --schema criteria.yaml --out ./scores`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.String("manifest", "", "CSV manifest path (required)")
	f.String("schema", "", "criteria schema YAML path (required)")
	f.String("out", ".", "output directory for per-company score JSON")
	f.Int("concurrency", 2, "companies scored in parallel")
	batchCmd.MarkFlagRequired("manifest")
	batchCmd.MarkFlagRequired("schema")

	rootCmd.AddCommand(batchCmd)
}

// batchEntry is one manifest row.
type batchEntry struct {
	Name    string
	URL     string
	Sector  string
	DocsDir string
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	f := cmd.Flags()
	manifestPath, _ := f.GetString("manifest")
	schemaPath, _ := f.GetString("schema")
	outDir, _ := f.GetString("out")
	concurrency, _ := f.GetInt("concurrency")

	schema, err := model.LoadCriteriaSchema(schemaPath)
	if err != nil {
		return err
	}
	entries, err := readManifest(manifestPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return eris.Wrapf(err, "create output dir %s", outDir)
	}

	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, entry := range entries {
		g.Go(func() error {
			docs, err := docload.LoadDir(entry.DocsDir)
			if err != nil {
				return err
			}
			result, err := e.Service.Score(gctx, diligence.ScoreRequest{
				CompanyName: entry.Name,
				CompanyURL:  entry.URL,
				Sector:      entry.Sector,
				Schema:      schema,
				Documents:   docs,
			})
			if err != nil {
				// One bad company must not sink the batch.
				zap.L().Error("batch: company failed",
					zap.String("company", entry.Name),
					zap.Error(err),
				)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			return writeJSON(scoreFileName(outDir, entry.Name), result)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	zap.L().Info("batch complete",
		zap.Int("companies", len(entries)),
		zap.Int("failed", failed),
	)
	return nil
}

func readManifest(path string) ([]batchEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open manifest %s", path)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "parse manifest")
	}

	var entries []batchEntry
	for i, row := range rows {
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "name") {
			continue // header
		}
		if len(row) < 4 {
			return nil, eris.Errorf("manifest row %d: want name,url,sector,docs_dir", i+1)
		}
		entries = append(entries, batchEntry{
			Name:    strings.TrimSpace(row[0]),
			URL:     strings.TrimSpace(row[1]),
			Sector:  strings.TrimSpace(row[2]),
			DocsDir: strings.TrimSpace(row[3]),
		})
	}
	return entries, nil
}

func scoreFileName(dir, company string) string {
	slug := strings.ToLower(company)
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, slug)
	return dir + "/" + strings.Trim(slug, "-") + ".json"
}
