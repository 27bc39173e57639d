package api

import (
	"net/http"

	"github.com/hashicorp-forge/notion-relay/internal/server"
)

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// HealthHandler reports that the service is running. It does not contact
// the remote task database.
func HealthHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Service: "notion-relay",
		})
	})
}

// FetchHandler returns every task.
func FetchHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts, err := srv.Tasks.All(r.Context())
		if err != nil {
			respondError(srv, w, r, "error fetching tasks", err)
			return
		}
		writeJSON(w, http.StatusOK, newTaskResponses(ts))
	})
}

// SearchHandler returns tasks whose command contains the "query" parameter.
func SearchHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query, err := requireQuery(r, "query")
		if err != nil {
			respondError(srv, w, r, "invalid search request", err)
			return
		}

		ts, err := srv.Tasks.Search(r.Context(), query)
		if err != nil {
			respondError(srv, w, r, "error searching tasks", err)
			return
		}
		writeJSON(w, http.StatusOK, newTaskResponses(ts))
	})
}

// FilterHandler returns tasks whose status matches the "status" parameter.
func FilterHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, err := requireQuery(r, "status")
		if err != nil {
			respondError(srv, w, r, "invalid filter request", err)
			return
		}

		ts, err := srv.Tasks.Filter(r.Context(), status)
		if err != nil {
			respondError(srv, w, r, "error filtering tasks", err)
			return
		}
		writeJSON(w, http.StatusOK, newTaskResponses(ts))
	})
}

// GroupedHandler returns task commands grouped by status.
func GroupedHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		grouped, err := srv.Tasks.Grouped(r.Context())
		if err != nil {
			respondError(srv, w, r, "error grouping tasks", err)
			return
		}
		writeJSON(w, http.StatusOK, grouped)
	})
}

// GetTaskHandler returns the task whose command matches the "command"
// parameter, ignoring case.
func GetTaskHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		command, err := requireQuery(r, "command")
		if err != nil {
			respondError(srv, w, r, "invalid get task request", err)
			return
		}

		t, err := srv.Tasks.GetByCommand(r.Context(), command)
		if err != nil {
			respondError(srv, w, r, "error getting task", err)
			return
		}
		writeJSON(w, http.StatusOK, newTaskResponse(*t))
	})
}

// StatusCountsHandler returns the number of tasks per status.
func StatusCountsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counts, err := srv.Tasks.StatusCounts(r.Context())
		if err != nil {
			respondError(srv, w, r, "error counting tasks", err)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	})
}

// DailySummaryHandler returns tasks created today.
func DailySummaryHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts, err := srv.Tasks.DailySummary(r.Context())
		if err != nil {
			respondError(srv, w, r, "error building daily summary", err)
			return
		}
		writeJSON(w, http.StatusOK, newTaskResponses(ts))
	})
}
