package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prepdesk/progress-engine/internal/attempt"
	"github.com/prepdesk/progress-engine/internal/progress"
	"github.com/prepdesk/progress-engine/internal/stats"
)

func (a *app) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)
	mux.HandleFunc("GET /api/courses/{courseID}/users/{userID}/stats", a.handleStats)
	mux.HandleFunc("GET /api/courses/{courseID}/users/{userID}/stats/export", a.handleStatsExport)
	mux.HandleFunc("GET /api/courses/{courseID}/users/{userID}/progress", a.handleProgressGet)
	mux.HandleFunc("PUT /api/courses/{courseID}/users/{userID}/progress", a.handleProgressPut)
	mux.HandleFunc("GET /api/courses/{courseID}/users/{userID}/stats/live", a.handleStatsLive)
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (a *app) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if a.db != nil {
		if err := a.db.HealthCheck(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	if a.cache != nil {
		if err := a.cache.HealthCheck(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "cache unreachable")
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// computeStats resolves the course tree and runs the statistics pipeline.
// A nil map with a zero status means the response was already written.
func (a *app) computeStats(w http.ResponseWriter, r *http.Request) (map[string]stats.NodeStatistics, bool) {
	if a.stats == nil {
		writeError(w, http.StatusServiceUnavailable, "statistics temporarily unavailable")
		return nil, false
	}

	tree, ok := a.curricula.Tree(r.PathValue("courseID"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown course")
		return nil, false
	}

	statsByNode, err := a.stats.ForStudent(r.Context(), tree, r.PathValue("userID"))
	if err != nil {
		if errors.Is(err, attempt.ErrAllSourcesUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "statistics temporarily unavailable")
		} else {
			slog.Error("statistics computation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return nil, false
	}
	return statsByNode, true
}

func (a *app) handleStats(w http.ResponseWriter, r *http.Request) {
	statsByNode, ok := a.computeStats(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, statsByNode)
}

func (a *app) handleStatsExport(w http.ResponseWriter, r *http.Request) {
	statsByNode, ok := a.computeStats(w, r)
	if !ok {
		return
	}

	tree, _ := a.curricula.Tree(r.PathValue("courseID"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="statistics.xlsx"`)
	if err := stats.WriteReport(w, tree, statsByNode); err != nil {
		slog.Error("report export failed", "error", err)
	}
}

func (a *app) handleProgressGet(w http.ResponseWriter, r *http.Request) {
	p, err := a.progress.Load(r.Context(), r.PathValue("userID"), r.PathValue("courseID"))
	if err != nil {
		slog.Error("progress load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// progressUpdateRequest is the wire shape of a partial progress update.
type progressUpdateRequest struct {
	Topics          map[string]progress.TopicEntry `json:"topics,omitempty"`
	PerformanceGoal *int                           `json:"performance_goal,omitempty"`
	ExamDate        *time.Time                     `json:"exam_date,omitempty"`
	ClearExamDate   bool                           `json:"clear_exam_date,omitempty"`
}

type progressUpdateResponse struct {
	Progress *progress.UserCourseProgress `json:"progress"`
	Warning  string                       `json:"warning,omitempty"`
}

func (a *app) handleProgressPut(w http.ResponseWriter, r *http.Request) {
	var req progressUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PerformanceGoal != nil && (*req.PerformanceGoal < 0 || *req.PerformanceGoal > 100) {
		writeError(w, http.StatusBadRequest, "performance_goal must be 0-100")
		return
	}

	merged, err := a.progress.Update(r.Context(), r.PathValue("userID"), r.PathValue("courseID"), progress.Update{
		Topics:          req.Topics,
		PerformanceGoal: req.PerformanceGoal,
		ExamDate:        req.ExamDate,
		ClearExamDate:   req.ClearExamDate,
	})
	if err != nil {
		if errors.Is(err, progress.ErrRemoteSync) {
			// Local copy committed; the user sees a warning, not a failure.
			writeJSON(w, http.StatusOK, progressUpdateResponse{
				Progress: merged,
				Warning:  "progress saved locally; server sync will retry on your next change",
			})
			return
		}
		slog.Error("progress update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, progressUpdateResponse{Progress: merged})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
