package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/report-cli/internal/fetcher"
	"github.com/sells-group/report-cli/internal/model"
	"github.com/sells-group/report-cli/internal/runner"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for report retrieval",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e := initEnv(cfg)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(e.runner),
		}

		// Graceful shutdown
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

// batchRunner is the slice of the runner the HTTP layer needs.
type batchRunner interface {
	Run(ctx context.Context, companies []string, year int, sel runner.Selector) (*runner.Result, error)
}

type fetchRequest struct {
	Companies []string `json:"companies"`
	Year      int      `json:"year"`
	Exchange  string   `json:"exchange"`
}

type documentMeta struct {
	Exchange string `json:"exchange"`
	Company  string `json:"company"`
	Filename string `json:"filename"`
	Bytes    int    `json:"bytes"`
}

type fetchResponse struct {
	Documents []documentMeta `json:"documents"`
	Log       []string       `json:"log"`
}

func newRouter(batch batchRunner) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Post("/api/fetch", func(w http.ResponseWriter, req *http.Request) {
		var in fetchRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(in.Companies) == 0 {
			httpError(w, http.StatusBadRequest, "companies is required")
			return
		}

		sel, err := runner.ParseSelector(in.Exchange)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := batch.Run(req.Context(), in.Companies, in.Year, sel)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}

		if strings.Contains(req.Header.Get("Accept"), "application/zip") {
			writeZipResponse(w, in.Year, res.Documents)
			return
		}

		out := fetchResponse{Log: res.Log.Entries()}
		for _, doc := range res.Documents {
			out.Documents = append(out.Documents, documentMeta{
				Exchange: string(doc.Exchange),
				Company:  doc.Company,
				Filename: doc.Filename,
				Bytes:    len(doc.Data),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	})

	return r
}

func writeZipResponse(w http.ResponseWriter, year int, docs []*model.Document) {
	if len(docs) == 0 {
		httpError(w, http.StatusNotFound, "no documents retrieved")
		return
	}
	vals := make([]model.Document, len(docs))
	for i, d := range docs {
		vals[i] = *d
	}
	data, err := fetcher.BundleZIP(vals)
	if err != nil {
		zap.L().Error("bundle failed", zap.Error(err))
		httpError(w, http.StatusInternalServerError, "bundle failed")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="AnnualReports_%d.zip"`, year))
	w.Write(data)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
