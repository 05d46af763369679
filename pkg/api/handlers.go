package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/0xmhha/hydrotrack/pkg/analytics"
	"github.com/0xmhha/hydrotrack/pkg/insight"
	"github.com/0xmhha/hydrotrack/pkg/model"
	"github.com/0xmhha/hydrotrack/pkg/parser"
	"github.com/0xmhha/hydrotrack/pkg/profile"
	"github.com/0xmhha/hydrotrack/pkg/store"
)

const maxBodyBytes = 1 << 20

// WarningHeader carries a non-fatal problem of a successful write.
const WarningHeader = "X-Hydrotrack-Warning"

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period := q.Get("period")
	if period == "" {
		period = "daily"
	}

	sum, err := s.service.Summary(r.Context(), analytics.SummaryRequest{
		UserID:   mux.Vars(r)["userID"],
		Period:   period,
		Date:     q.Get("date"),
		TimeZone: q.Get("tz"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) trends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period := q.Get("period")
	if period == "" {
		period = "weekly"
	}

	res, err := s.service.Trend(r.Context(), analytics.TrendRequest{
		UserID:   mux.Vars(r)["userID"],
		Period:   period,
		TimeZone: q.Get("tz"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) insights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// An absent days parameter selects the configured default; an explicit
	// one must be in range.
	days := 0
	if q.Has("days") {
		raw := q.Get("days")
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: got %q", insight.ErrInvalidDays, raw))
			return
		}
		if err := insight.CheckDays(n); err != nil {
			s.fail(w, r, err)
			return
		}
		days = n
	}

	report, err := s.service.Insights(r.Context(), analytics.InsightRequest{
		UserID:   mux.Vars(r)["userID"],
		Days:     days,
		TimeZone: q.Get("tz"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) createConsumption(w http.ResponseWriter, r *http.Request) {
	c, ok := s.decodeConsumption(w, r, "")
	if !ok {
		return
	}

	stored, err := s.service.RecordConsumption(r.Context(), c)
	s.writeStored(w, r, http.StatusCreated, stored, err)
}

func (s *Server) updateConsumption(w http.ResponseWriter, r *http.Request) {
	c, ok := s.decodeConsumption(w, r, mux.Vars(r)["id"])
	if !ok {
		return
	}

	updated, err := s.service.UpdateConsumption(r.Context(), c)
	s.writeStored(w, r, http.StatusOK, updated, err)
}

func (s *Server) deleteConsumption(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	old, err := s.service.DeleteConsumption(r.Context(), vars["userID"], vars["id"])
	s.writeStored(w, r, http.StatusOK, old, err)
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	snap, err := s.service.DailySnapshot(r.Context(), vars["userID"], vars["date"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) recomputeSnapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	snap, err := s.service.RecomputeDay(r.Context(), vars["userID"], vars["date"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.Profile(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) putProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decode(w, r, &req) {
		return
	}

	userID := mux.Vars(r)["userID"]
	err := s.service.SaveProfile(r.Context(), &model.Profile{
		UserID:      userID,
		DailyGoalML: req.DailyGoalML,
		IsPremium:   req.IsPremium,
		TimeZone:    req.TimeZone,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := s.service.Profile(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// decodeConsumption reads a record body in the inbox line format. The user
// id, and the record id when pathID is set, default to the path and must
// match it when present.
func (s *Server) decodeConsumption(w http.ResponseWriter, r *http.Request, pathID string) (model.Consumption, bool) {
	var line parser.Line
	if !decode(w, r, &line) {
		return model.Consumption{}, false
	}

	userID := mux.Vars(r)["userID"]
	if line.UserID != "" && line.UserID != userID {
		writeError(w, http.StatusBadRequest, "user_id does not match the path")
		return model.Consumption{}, false
	}
	line.UserID = userID

	if pathID != "" {
		if line.ID != "" && line.ID != pathID {
			writeError(w, http.StatusBadRequest, "record id does not match the path")
			return model.Consumption{}, false
		}
		line.ID = pathID
	}

	return line.Consumption(), true
}

// writeStored answers a write. A record stored with a stale snapshot is
// still a success and carries WarningHeader.
func (s *Server) writeStored(w http.ResponseWriter, r *http.Request, status int, c model.Consumption, err error) {
	if err != nil && !errors.Is(err, analytics.ErrSnapshotRecompute) {
		s.fail(w, r, err)
		return
	}
	if err != nil {
		s.logger.Warn("record stored with stale snapshot",
			"user_id", c.UserID,
			"id", c.ID,
			"error", err)
		w.Header().Set(WarningHeader, err.Error())
	}
	writeJSON(w, status, c)
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrDuplicateRecord):
		return http.StatusConflict
	case analytics.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrSnapshotNotFound),
		errors.Is(err, store.ErrRecordNotFound),
		errors.Is(err, profile.ErrProfileNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "invalid JSON body"
		if strings.Contains(err.Error(), "unknown field") {
			msg = err.Error()
		}
		writeError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
