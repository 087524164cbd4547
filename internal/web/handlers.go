package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/commercedesk/ingest/internal/engine"
	"github.com/commercedesk/ingest/internal/logging"
)

// handleHealth reports process liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// entityTypeInfo describes one schema for API discovery.
type entityTypeInfo struct {
	EntityType string               `json:"entityType"`
	Fields     []engine.SchemaField `json:"fields"`
	Anchors    []string             `json:"anchors"`
}

// handleListEntityTypes returns every concrete entity type with its canonical
// fields, known header aliases, and anchor columns.
func (s *Server) handleListEntityTypes(w http.ResponseWriter, r *http.Request) {
	types := engine.ConcreteTypes()
	infos := make([]entityTypeInfo, 0, len(types))
	for _, t := range types {
		infos = append(infos, entityTypeInfo{
			EntityType: t.String(),
			Fields:     engine.SchemaFields(t),
			Anchors:    engine.AnchorFields(t),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entityTypes": infos})
}

// handleDownloadTemplate serves a sample CSV for one entity type.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "entityType")
	entityType, ok := engine.ParseEntityType(name)
	if !ok {
		respondError(w, r, fmt.Errorf("unknown entity type %q", name), http.StatusNotFound)
		return
	}

	data, err := engine.Template(entityType)
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s_template.csv", entityType))
	w.Write(data)
}

// handleCreateSession accepts a multipart CSV upload and runs the preview
// pipeline. The response is the full session view: detection result, column
// mappings, validation errors, and a bounded row preview.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Ingest.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		respondError(w, r, fmt.Errorf("file too large or invalid form: %w", err),
			http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return
	}

	sess, err := s.service.Begin(r.Context(), header.Filename, data)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	view := sess.View(s.service.PreviewRows())
	logging.FromContext(r.Context()).Info("session created",
		"session_id", view.ID,
		"file", view.FileName,
		"entity_type", view.EntityType,
		"confidence", view.Detection.Confidence,
		"rows", view.RowCount,
	)
	writeJSON(w, http.StatusCreated, view)
}

// session resolves the session named in the URL, writing a 404 on a miss.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*engine.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, ok := s.service.Get(id)
	if !ok {
		respondError(w, r, fmt.Errorf("session not found: %s", id), http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

// handleGetSession returns the current session view.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.View(s.service.PreviewRows()))
}

// mappingRequest overrides the mapped field of one source column.
type mappingRequest struct {
	Column int    `json:"column"`
	Field  string `json:"field"`
}

// handleSetMapping applies a manual mapping override and returns the
// re-validated session view.
func (s *Server) handleSetMapping(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req mappingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := sess.SetMapping(req.Column, req.Field); err != nil {
		respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, sess.View(s.service.PreviewRows()))
}

// entityTypeRequest overrides the effective entity type of a session.
type entityTypeRequest struct {
	EntityType string `json:"entityType"`
}

// handleOverrideEntityType replaces the effective entity type, re-maps the
// columns, and returns the re-validated session view.
func (s *Server) handleOverrideEntityType(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req entityTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	entityType, valid := engine.ParseEntityType(req.EntityType)
	if !valid {
		respondError(w, r, fmt.Errorf("unknown entity type %q", req.EntityType), http.StatusBadRequest)
		return
	}

	if err := sess.OverrideEntityType(entityType); err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, sess.View(s.service.PreviewRows()))
}

// handleCommit persists the session's records through the storage
// collaborator. Validation failures and state conflicts return 409; a storage
// failure returns 502 and leaves the session correctable.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Ingest.CommitTimeout)
	defer cancel()

	result, err := s.service.Commit(ctx, id)
	if err != nil {
		var commitErr *engine.CommitError
		switch {
		case errors.As(err, &commitErr):
			respondError(w, r, err, http.StatusBadGateway)
		case engine.MapError(err).Code == "SES001":
			respondError(w, r, err, http.StatusNotFound)
		default:
			respondError(w, r, err, http.StatusConflict)
		}
		return
	}

	logging.FromContext(r.Context()).Info("session committed",
		"session_id", id,
		"import_id", result.ImportID,
		"records", result.Records,
	)
	writeJSON(w, http.StatusOK, result)
}

// handleCancelSession discards a session.
func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !s.service.Cancel(id) {
		respondError(w, r, fmt.Errorf("session not found: %s", id), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListImports returns recent import history, newest first.
func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, r, fmt.Errorf("invalid limit %q", raw), http.StatusBadRequest)
			return
		}
		limit = n
	}

	summaries, err := s.imports.ListImports(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imports": summaries})
}

// decodeJSON reads the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
