package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Itecs-company/Alias/internal/export"
	"github.com/Itecs-company/Alias/internal/model"
)

const maxUploadBytes = 20 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the resolution HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
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

func newRouter(env *Env) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	api := &apiServer{env: env}

	r.Get("/health", api.handleHealth)
	r.Post("/api/parts", api.handleResolveOne)
	r.Get("/api/parts", api.handleListParts)
	r.Post("/api/search", api.handleResolveBatch)
	r.Post("/api/upload", api.handleUpload)
	r.Get("/api/export/excel", api.handleExport)
	r.Get("/api/logs", api.handleLogs)

	return r
}

type apiServer struct {
	env *Env
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleResolveOne resolves a single part number synchronously.
func (s *apiServer) handleResolveOne(w http.ResponseWriter, r *http.Request) {
	var req model.PartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PartNumber == "" {
		writeError(w, http.StatusBadRequest, "part_number is required")
		return
	}

	result, err := s.env.Engine.ResolveOne(r.Context(), req, queryBool(r, "debug"))
	if err != nil {
		zap.L().Error("resolve failed", zap.String("part_number", req.PartNumber), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "resolution failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleResolveBatch resolves a list of part numbers and returns
// results in submission order.
func (s *apiServer) handleResolveBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Parts []model.PartRequest `json:"parts"`
		Debug bool                `json:"debug"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Parts) == 0 {
		writeError(w, http.StatusBadRequest, "parts is required")
		return
	}

	results, err := s.env.Engine.ResolveMany(r.Context(), req.Parts, req.Debug)
	if err != nil {
		zap.L().Error("batch resolve failed", zap.Int("parts", len(req.Parts)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "batch resolution failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *apiServer) handleListParts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	parts, err := s.env.Store.ListParts(r.Context(), limit, offset)
	if err != nil {
		zap.L().Error("list parts failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"parts": parts})
}

// handleUpload accepts an xlsx workbook as multipart form field "file"
// and resolves every row.
func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	report, err := s.env.Importer.Run(r.Context(), data, queryBool(r, "debug"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleExport streams all stored parts as an xlsx workbook.
func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10000)
	parts, err := s.env.Store.ListParts(r.Context(), limit, 0)
	if err != nil {
		zap.L().Error("export list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="parts-%s.xlsx"`, uuid.NewString()))
	if err := export.WriteWorkbook(w, parts); err != nil {
		zap.L().Error("export write failed", zap.Error(err))
	}
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.env.Store.ListSearchLogs(r.Context(), queryInt(r, "limit", 200))
	if err != nil {
		zap.L().Error("list search logs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func queryBool(r *http.Request, key string) bool {
	return r.URL.Query().Get(key) == "true"
}
