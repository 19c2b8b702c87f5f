package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rewired-gh/pollsight/internal/logger"
	"github.com/rewired-gh/pollsight/internal/models"
	"github.com/rewired-gh/pollsight/internal/service"
	"github.com/rewired-gh/pollsight/internal/storage"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

type insightsBody struct {
	Insights []models.Insight `json:"insights"`
}

type statsBody struct {
	Poll  *models.Poll `json:"poll"`
	Stats models.Stats `json:"stats"`
}

type submitRequest struct {
	UserID string       `json:"user_id"`
	Value  models.Value `json:"value"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeServiceError maps service and storage errors to status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrDuplicateResponse), errors.Is(err, storage.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPollClosed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidValue),
		errors.Is(err, service.ErrInvalidPoll),
		errors.Is(err, service.ErrInvalidProfile):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createPoll(w http.ResponseWriter, r *http.Request) {
	var poll models.Poll
	if !decodeBody(w, r, &poll) {
		return
	}
	created, err := s.svc.CreatePoll(r.Context(), &poll)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listPolls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := storage.ListOptions{
		ActiveOnly:   q.Get("active") != "false",
		Order:        storage.OrderRecent,
		UnansweredBy: q.Get("unanswered_by"),
	}
	switch q.Get("sort") {
	case "", string(storage.OrderRecent):
	case string(storage.OrderTrending):
		opts.Order = storage.OrderTrending
	default:
		writeError(w, http.StatusBadRequest, "sort must be one of: recent, trending")
		return
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		opts.Limit = n
	}

	polls, err := s.svc.ListPolls(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"polls": polls})
}

func (s *Server) getPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := s.svc.GetPoll(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

func (s *Server) upvote(w http.ResponseWriter, r *http.Request) {
	poll, err := s.svc.Upvote(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

func (s *Server) submitResponse(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.svc.SubmitResponse(r.Context(), mux.Vars(r)["id"], req.UserID, req.Value)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) pollStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := models.Filters{
		AgeRange:   q.Get("age_range"),
		Gender:     q.Get("gender"),
		Region:     q.Get("region"),
		Occupation: q.Get("occupation"),
	}
	poll, st, err := s.svc.PollStats(r.Context(), mux.Vars(r)["id"], filters)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsBody{Poll: poll, Stats: st})
}

func (s *Server) globalInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.svc.GlobalInsights(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insightsBody{Insights: insights})
}

func (s *Server) personalInsights(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	insights, err := s.svc.PersonalizedInsights(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insightsBody{Insights: insights})
}

func (s *Server) saveDemographics(w http.ResponseWriter, r *http.Request) {
	var d models.Demographics
	if !decodeBody(w, r, &d) {
		return
	}
	if err := s.svc.SaveDemographics(r.Context(), mux.Vars(r)["id"], d); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) getDemographics(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.GetDemographics(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}
