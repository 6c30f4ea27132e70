package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/core/validation"
	"github.com/custodia-labs/tasker/internal/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

const (
	msgTaskNotFound   = "Task not found"
	msgInternalError  = "Internal server error"
	msgMalformedBody  = "Malformed JSON body"
	msgRequestTooLong = "Request body too large"
)

// errorResponse is the body of 404 and 500 responses.
type errorResponse struct {
	Error string `json:"error"`
}

// validationResponse is the body of 400 responses.
type validationResponse struct {
	Errors []domain.Violation `json:"errors"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	input, err := decodeTaskInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	task, err := s.tasks.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := s.tasks.List(r.Context(), domain.ListInput{
		Status:    q.Get("status"),
		DueDate:   q.Get("dueDate"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	input, err := decodeTaskInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	task, err := s.tasks.Update(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeTaskInput reads a JSON object into a TaskInput. An empty body is an
// empty object. Fields holding anything but a string are reported as
// violations before the service sees the request.
func decodeTaskInput(w http.ResponseWriter, r *http.Request) (domain.TaskInput, error) {
	var raw map[string]json.RawMessage
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return domain.TaskInput{}, nil
	case errors.As(err, &tooLarge):
		return domain.TaskInput{}, domain.NewValidationError("body", msgRequestTooLong)
	case err != nil:
		return domain.TaskInput{}, domain.NewValidationError("body", msgMalformedBody)
	}

	var verr domain.ValidationError
	input := domain.TaskInput{
		Title:       stringField(&verr, raw, "title"),
		Description: stringField(&verr, raw, "description"),
		DueDate:     stringField(&verr, raw, "dueDate"),
		Status:      stringField(&verr, raw, "status"),
	}
	if err := verr.OrNil(); err != nil {
		return domain.TaskInput{}, err
	}
	return input, nil
}

func stringField(verr *domain.ValidationError, raw map[string]json.RawMessage, field string) *string {
	value, ok := raw[field]
	if !ok {
		return nil
	}
	var s string
	if bytes.Equal(bytes.TrimSpace(value), []byte("null")) || json.Unmarshal(value, &s) != nil {
		verr.Violations = append(verr.Violations, validation.TypeViolation(field))
		return nil
	}
	return &s
}

// writeError maps service errors onto status codes. Only client errors
// carry detail; everything else is logged and answered generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: verr.Violations})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, validationResponse{
			Errors: []domain.Violation{{Message: err.Error()}},
		})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: msgTaskNotFound})
	default:
		logger.Error("[http] %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternalError})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("[http] writing response: %v", err)
	}
}
