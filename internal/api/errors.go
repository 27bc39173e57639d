package api

import (
	"errors"
	"net/http"

	"github.com/hashicorp-forge/notion-relay/internal/server"
	"github.com/hashicorp-forge/notion-relay/pkg/csvimport"
	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
)

// ErrorKind identifies the class of a failed request.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "AuthenticationFailure"
	KindValidation     ErrorKind = "ValidationFailure"
	KindNotFound       ErrorKind = "NotFound"
	KindMethod         ErrorKind = "MethodNotAllowed"
	KindRemote         ErrorKind = "RemoteServiceFailure"
	KindInternal       ErrorKind = "InternalFailure"
)

// Status returns the HTTP status code for the kind.
func (k ErrorKind) Status() int {
	switch k {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindMethod:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Reasons further describing a RemoteServiceFailure.
const (
	ReasonRemoteUnauthorized = "remote_unauthorized"
	ReasonRateLimited        = "rate_limited"
	ReasonRemoteUnavailable  = "remote_unavailable"
	ReasonRemoteRejected     = "remote_rejected"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Kind   ErrorKind `json:"kind"`
	Error  string    `json:"error"`
	Reason string    `json:"reason,omitempty"`
	Fields []string  `json:"fields,omitempty"`
}

// writeError writes a structured error reply.
func writeError(w http.ResponseWriter, resp ErrorResponse) {
	writeJSON(w, resp.Kind.Status(), resp)
}

// classify maps an error from the service layer onto an error reply.
func classify(err error) ErrorResponse {
	var verr *validationError
	switch {
	case errors.As(err, &verr):
		return ErrorResponse{Kind: KindValidation, Error: verr.Error(), Fields: verr.fields}
	case errors.Is(err, csvimport.ErrInvalidFile):
		return ErrorResponse{Kind: KindValidation, Error: err.Error()}
	case errors.Is(err, tasks.ErrInvalidInput):
		return ErrorResponse{Kind: KindValidation, Error: tasks.PublicMessage(err)}
	case errors.Is(err, tasks.ErrNotFound):
		return ErrorResponse{Kind: KindNotFound, Error: tasks.PublicMessage(err)}
	case errors.Is(err, tasks.ErrRemoteUnauthorized):
		return remoteError(err, ReasonRemoteUnauthorized)
	case errors.Is(err, tasks.ErrRateLimited):
		return remoteError(err, ReasonRateLimited)
	case errors.Is(err, tasks.ErrRemoteUnavailable):
		return remoteError(err, ReasonRemoteUnavailable)
	case errors.Is(err, tasks.ErrRemoteRejected):
		return remoteError(err, ReasonRemoteRejected)
	default:
		return ErrorResponse{Kind: KindInternal, Error: "internal error"}
	}
}

func remoteError(err error, reason string) ErrorResponse {
	return ErrorResponse{
		Kind:   KindRemote,
		Error:  tasks.PublicMessage(err),
		Reason: reason,
	}
}

// respondError logs err and writes the matching error reply. Internal
// failures are logged at error level with full detail; the caller only sees
// a generic message.
func respondError(srv server.Server, w http.ResponseWriter, r *http.Request, msg string, err error) {
	resp := classify(err)

	switch resp.Kind {
	case KindInternal, KindRemote:
		srv.Logger.Error(msg,
			"error", err,
			"kind", resp.Kind,
			"path", r.URL.Path,
			"method", r.Method,
			"request_id", RequestID(r.Context()),
		)
	default:
		srv.Logger.Info(msg,
			"error", err,
			"kind", resp.Kind,
			"path", r.URL.Path,
			"method", r.Method,
			"request_id", RequestID(r.Context()),
		)
	}

	writeError(w, resp)
}
