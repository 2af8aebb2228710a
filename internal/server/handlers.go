package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/KaramelBytes/autoanalyst-cli/internal/ai"
	"github.com/KaramelBytes/autoanalyst-cli/internal/dataset"
	"github.com/KaramelBytes/autoanalyst-cli/internal/history"
	"github.com/KaramelBytes/autoanalyst-cli/internal/insight"
	"github.com/KaramelBytes/autoanalyst-cli/internal/ml"
	"github.com/KaramelBytes/autoanalyst-cli/internal/report"
)

type trainRequest struct {
	DatasetID string `json:"dataset_id"`
	Target    string `json:"target"`
}

type errorResponse struct {
	Error     string   `json:"error"`
	Available []string `json:"available,omitempty"`
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "AutoAnalyst Server Online"})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, badRequest(fmt.Errorf("multipart field %q: %w", "file", err)))
		return
	}
	defer file.Close()
	m, err := s.cfg.Datasets.Save(r.Context(), hdr.Filename, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"dataset_id": m.ID,
		"filename":   m.Name,
		"rows":       m.Rows,
		"cols":       m.Cols,
	})
}

func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Datasets.List()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*dataset.Meta{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	sum, err := s.cfg.Engine.Profile(r.Context(), mux.Vars(r)["id"])
	s.cfg.Metrics.ObserveProfile(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) train(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, badRequest(fmt.Errorf("decode body: %w", err)))
		return
	}
	if req.DatasetID == "" || strings.TrimSpace(req.Target) == "" {
		s.writeError(w, r, badRequest(errors.New("dataset_id and target are required")))
		return
	}
	res, err := s.trainAndObserve(r, req.DatasetID, req.Target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) trainAndObserve(r *http.Request, id, target string) (*ml.Result, error) {
	start := time.Now()
	res, err := s.cfg.Engine.Train(r.Context(), id, target)
	task := ""
	if res != nil {
		task = res.Task.String()
	}
	s.cfg.Metrics.ObserveTraining(task, time.Since(start), err)
	return res, err
}

func (s *Server) autoscan(w http.ResponseWriter, r *http.Request) {
	res, err := s.cfg.Analyst.Autoscan(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req insight.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, badRequest(fmt.Errorf("decode body: %w", err)))
		return
	}
	if req.DatasetID == "" {
		s.writeError(w, r, badRequest(errors.New("dataset_id is required")))
		return
	}
	h := s.cfg.History
	if h != nil && req.History == nil {
		turns, err := h.Load(req.DatasetID)
		if err != nil {
			s.log.WithError(err).WithField("dataset_id", req.DatasetID).Warn("chat history unavailable")
		}
		req.History = history.Last(turns, s.cfg.HistoryTurns)
	}
	resp, err := s.cfg.Analyst.Chat(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if h != nil {
		err := h.Append(req.DatasetID,
			history.Turn{Role: history.RoleUser, Text: req.Query},
			history.Turn{Role: history.RoleAI, Text: resp.Response},
		)
		if err != nil {
			s.log.WithError(err).WithField("dataset_id", req.DatasetID).Warn("chat history not saved")
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) chatHistory(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History == nil {
		writeJSON(w, http.StatusOK, []history.Turn{})
		return
	}
	turns, err := s.cfg.History.Load(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	writeJSON(w, http.StatusOK, turns)
}

// report renders the profile as Markdown. With ?target= it trains a model
// first and appends it; ?format=csv then returns the importances instead.
func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	target := r.URL.Query().Get("target")
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "csv" && target == "" {
		s.writeError(w, r, badRequest(errors.New("format=csv requires a target")))
		return
	}
	sum, err := s.cfg.Engine.Profile(r.Context(), id)
	s.cfg.Metrics.ObserveProfile(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var res *ml.Result
	if target != "" {
		if res, err = s.trainAndObserve(r, id, target); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="importances.csv"`)
		if err := report.WriteImportancesCSV(w, res); err != nil {
			s.log.WithError(err).Error("write csv report")
		}
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="AutoAnalyst_Report.md"`)
	_, _ = w.Write([]byte(report.Markdown(sum, res)))
}

type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &badRequestError{err: err} }

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		bad     *badRequestError
		missing *ml.ColumnNotFoundError
		train   *ml.TrainingError
		tooBig  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &bad), errors.Is(err, insight.ErrEmptyQuery), errors.Is(err, dataset.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, dataset.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dataset.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &missing), errors.As(err, &train):
		return http.StatusUnprocessableEntity
	case errors.Is(err, insight.ErrOffline):
		return http.StatusServiceUnavailable
	case isUpstream(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func isUpstream(err error) bool {
	var (
		api *ai.APIError
		unr *ai.UnreachableError
	)
	return errors.As(err, &api) || errors.As(err, &unr)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	body := errorResponse{Error: err.Error()}
	var missing *ml.ColumnNotFoundError
	if errors.As(err, &missing) {
		body.Available = missing.Available
	}
	if code >= 500 {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
