package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/inetdash/internal/export"
	"github.com/sells-group/inetdash/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

type viewResponse struct {
	View     model.ViewModel `json:"view"`
	Warnings []string        `json:"warnings"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func selectionFrom(r *http.Request) model.Selection {
	return model.Selection{Entity: r.URL.Query().Get("entity")}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEntities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"entities": s.svc.Dataset().Entities})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	vm := s.svc.View(selectionFrom(r))
	writeJSON(w, http.StatusOK, viewResponse{View: vm, Warnings: s.svc.Dataset().Warnings})
}

func (s *Server) handleCentroids(w http.ResponseWriter, _ *http.Request) {
	centroids := s.svc.Dataset().Centroids
	if centroids == nil {
		centroids = []model.CountryCentroid{}
	}
	writeJSON(w, http.StatusOK, map[string][]model.CountryCentroid{"centroids": centroids})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	vm := s.svc.View(selectionFrom(r))

	var buf bytes.Buffer
	if err := export.Write(&buf, format, vm.Rows); err != nil {
		s.log.Error("export failed",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("format", string(format)),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	if s.metrics != nil {
		s.metrics.Exported(string(format))
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(vm.Selection)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
