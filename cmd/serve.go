package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/diligence-cli/internal/diligence"
	"github.com/sells-group/diligence-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scoring HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeResponse(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/v1/score", func(w http.ResponseWriter, req *http.Request) {
			var body scoreRequestBody
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			scoreReq, err := body.toRequest()
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}

			result, err := e.Service.Score(req.Context(), scoreReq)
			if err != nil {
				zap.L().Error("serve: score failed",
					zap.String("company", body.CompanyName),
					zap.Error(err),
				)
				writeError(w, http.StatusBadGateway, "scoring failed")
				return
			}
			writeResponse(w, http.StatusOK, result)
		})

		r.Post("/v1/tam", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				CompanyName string           `json:"company_name"`
				CompanyURL  string           `json:"company_url"`
				Sector      string           `json:"sector"`
				Documents   []model.Document `json:"documents"`
				Notes       []model.Note     `json:"notes"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}

			intel, err := e.Service.RunTAMAnalysis(req.Context(), diligence.TAMRequest{
				CompanyName: body.CompanyName,
				CompanyURL:  body.CompanyURL,
				Sector:      body.Sector,
				Documents:   body.Documents,
				Notes:       body.Notes,
			})
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeResponse(w, http.StatusOK, intel)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// scoreRequestBody is the wire shape of a scoring request. The criteria
// schema travels inline as JSON.
type scoreRequestBody struct {
	CompanyName string                          `json:"company_name"`
	CompanyURL  string                          `json:"company_url"`
	Sector      string                          `json:"sector"`
	Schema      *model.CriteriaSchema           `json:"schema"`
	Documents   []model.Document                `json:"documents"`
	Notes       []model.Note                    `json:"notes"`
	Questions   []string                        `json:"questions"`
	Enrichment  string                          `json:"enrichment"`
	Team        *model.TeamResearch             `json:"team_research,omitempty"`
	Portfolio   *model.PortfolioSynergyResearch `json:"portfolio_synergy,omitempty"`
	Necessity   *model.ProblemNecessityResearch `json:"problem_necessity,omitempty"`
	Metrics     *model.MetricSet                `json:"source_of_truth_metrics,omitempty"`
	Previous    *model.DiligenceScore           `json:"previous_score,omitempty"`
}

func (b scoreRequestBody) toRequest() (diligence.ScoreRequest, error) {
	if b.Schema == nil {
		return diligence.ScoreRequest{}, eris.New("schema is required")
	}
	return diligence.ScoreRequest{
		CompanyName:          b.CompanyName,
		CompanyURL:           b.CompanyURL,
		Sector:               b.Sector,
		Schema:               b.Schema,
		Documents:            b.Documents,
		Notes:                b.Notes,
		Questions:            b.Questions,
		Enrichment:           b.Enrichment,
		Team:                 b.Team,
		Portfolio:            b.Portfolio,
		Necessity:            b.Necessity,
		SourceOfTruthMetrics: b.Metrics,
		Previous:             b.Previous,
	}, nil
}

func writeResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeResponse(w, status, map[string]string{"error": msg})
}
