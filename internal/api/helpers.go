package api

import (
	"encoding/json"
	"net/http"

	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
)

// Messages of successful task operations.
const (
	MessageCreated    = "Created"
	MessageUpdated    = "Updated"
	MessageDeleted    = "Deleted"
	MessageCompleted  = "Marked complete"
	MessageDuplicated = "Duplicated"
)

// TaskResponse is the reply projection of a task. Remote identifiers and
// timestamps are never included.
type TaskResponse struct {
	Message string `json:"message,omitempty"`
	Command string `json:"Command"`
	Action  string `json:"Action"`
	Status  string `json:"Status"`
}

func newTaskResponse(t tasks.Task) TaskResponse {
	return TaskResponse{
		Command: t.Command,
		Action:  t.Action,
		Status:  t.Status,
	}
}

func newTaskResponses(ts []tasks.Task) []TaskResponse {
	result := make([]TaskResponse, 0, len(ts))
	for _, t := range ts {
		result = append(result, newTaskResponse(t))
	}
	return result
}

// writeJSON writes v as a JSON reply with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
