package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

func (s *Server) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	entries := s.engine.Entries()
	summary, state := s.engine.Summary()

	sections := make(map[string]int)
	empty := 0
	for _, e := range entries {
		sections[e.Section]++
		if e.Answer == "" {
			empty++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entries":       entries,
		"entry_count":   len(entries),
		"empty_answers": empty,
		"sections":      sections,
		"summary":       summary,
		"summary_state": state,
	})
}

func (s *Server) handleExportPersona(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	io.WriteString(w, s.engine.ExportMarkdown())
}

func (s *Server) handleUploadPersona(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".md" && ext != ".markdown" {
		jsonError(w, "questionnaire must be markdown, got "+ext, http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, "file exceeds max size", http.StatusRequestEntityTooLarge)
		return
	}

	if err := s.engine.Reload(data); err != nil {
		jsonError(w, "questionnaire rejected: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "reloaded",
		"filename":    filename,
		"entry_count": len(s.engine.Entries()),
	})
}

func (s *Server) handleRefreshSummary(w http.ResponseWriter, r *http.Request) {
	// Generation can take a while; do it off the request.
	go s.engine.RefreshSummary(context.WithoutCancel(r.Context()))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "refreshing"})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
