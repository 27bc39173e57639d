package api

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hashicorp-forge/notion-relay/internal/server"
	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
)

// CreateHandler creates a new task. It never updates an existing task with
// the same command.
func CreateHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := &TaskRequest{}
		if err := decodeBody(srv, w, r, req); err != nil {
			respondError(srv, w, r, "error decoding create request", err)
			return
		}

		t, err := srv.Tasks.Create(r.Context(), req.Command, req.Action, req.Status)
		if err != nil {
			respondError(srv, w, r, "error creating task", err)
			return
		}

		resp := newTaskResponse(*t)
		resp.Message = MessageCreated
		writeJSON(w, http.StatusOK, resp)
	})
}

// UpdateHandler overwrites the action and status of the task with the given
// command.
func UpdateHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := &TaskRequest{}
		if err := decodeBody(srv, w, r, req); err != nil {
			respondError(srv, w, r, "error decoding update request", err)
			return
		}

		t, err := srv.Tasks.Update(r.Context(), req.Command, req.Action, req.Status)
		if err != nil {
			respondError(srv, w, r, "error updating task", err)
			return
		}

		resp := newTaskResponse(*t)
		resp.Message = MessageUpdated
		writeJSON(w, http.StatusOK, resp)
	})
}

// DeleteHandler removes the task with the given command.
func DeleteHandler(srv server.Server) http.Handler {
	return commandHandler(srv, "delete", MessageDeleted, srv.Tasks.Delete)
}

// CompleteHandler marks the task with the given command as done.
func CompleteHandler(srv server.Server) http.Handler {
	return commandHandler(srv, "complete", MessageCompleted, srv.Tasks.Complete)
}

// DuplicateHandler copies the task with the given command.
func DuplicateHandler(srv server.Server) http.Handler {
	return commandHandler(srv, "duplicate", MessageDuplicated, srv.Tasks.Duplicate)
}

// commandHandler handles requests that name a single task by command.
func commandHandler(
	srv server.Server,
	name, message string,
	op func(ctx context.Context, command string) (*tasks.Task, error),
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := &CommandRequest{}
		if err := decodeBody(srv, w, r, req); err != nil {
			respondError(srv, w, r, "error decoding "+name+" request", err)
			return
		}

		t, err := op(r.Context(), req.Command)
		if err != nil {
			respondError(srv, w, r, "error handling "+name+" request", err)
			return
		}

		resp := newTaskResponse(*t)
		resp.Message = message
		writeJSON(w, http.StatusOK, resp)
	})
}

// decodeBody limits the request body size and decodes it into v.
func decodeBody(srv server.Server, w http.ResponseWriter, r *http.Request, v validation.Validatable) error {
	r.Body = http.MaxBytesReader(w, r.Body, srv.Config.MaxBodyBytes)
	return decodeRequest(r, v)
}
