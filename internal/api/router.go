package api

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hashicorp-forge/notion-relay/internal/server"
)

// RequestIDHeader carries the request ID in requests and replies.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the request ID stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type route struct {
	method  string
	path    string
	handler func(server.Server) http.Handler
}

var routes = []route{
	{http.MethodPost, "/create", CreateHandler},
	{http.MethodPost, "/update", UpdateHandler},
	{http.MethodPost, "/delete", DeleteHandler},
	{http.MethodPost, "/complete", CompleteHandler},
	{http.MethodPost, "/duplicate", DuplicateHandler},
	{http.MethodPost, "/upload-csv", UploadCSVHandler},
	{http.MethodGet, "/fetch", FetchHandler},
	{http.MethodGet, "/search", SearchHandler},
	{http.MethodGet, "/filter", FilterHandler},
	{http.MethodGet, "/grouped", GroupedHandler},
	{http.MethodGet, "/get-task", GetTaskHandler},
	{http.MethodGet, "/status-counts", StatusCountsHandler},
	{http.MethodGet, "/daily-summary", DailySummaryHandler},
}

// NewHandler returns the complete HTTP handler: request IDs, request
// logging, the API key gate and routing, in that order.
func NewHandler(srv server.Server) http.Handler {
	return RequestIDMiddleware(
		LoggingMiddleware(srv,
			APIKeyMiddleware(srv, NewRouter(srv)),
		),
	)
}

// NewRouter registers every endpoint. Unknown paths get a NotFound reply and
// known paths called with the wrong method get 405.
func NewRouter(srv server.Server) http.Handler {
	mux := http.NewServeMux()

	allowed := map[string][]string{}
	for _, rt := range routes {
		mux.Handle(rt.method+" "+rt.path, rt.handler(srv))
		allowed[rt.path] = append(allowed[rt.path], rt.method)
	}
	mux.Handle("GET /{$}", HealthHandler(srv))
	allowed["/"] = []string{http.MethodGet}
	for _, methods := range allowed {
		sort.Strings(methods)
	}

	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods, ok := allowed[r.URL.Path]
		if !ok {
			writeError(w, ErrorResponse{
				Kind:  KindNotFound,
				Error: "no such endpoint: " + r.URL.Path,
			})
			return
		}

		w.Header().Set("Allow", strings.Join(methods, ", "))
		writeError(w, ErrorResponse{
			Kind:  KindMethod,
			Error: "method " + r.Method + " not allowed",
		})
	}))

	return mux
}

// RequestIDMiddleware assigns every request an ID, reusing one supplied by
// the caller, and echoes it in the reply.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs every request after it completes.
func LoggingMiddleware(srv server.Server, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		args := []interface{}{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", RequestID(r.Context()),
		}
		if r.URL.Path == "/" {
			srv.Logger.Debug("request", args...)
			return
		}
		srv.Logger.Info("request", args...)
	})
}
