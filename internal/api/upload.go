package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp-forge/notion-relay/internal/server"
)

// Multipart form fields of a CSV upload.
const (
	UploadFileField     = "file"
	UploadDatabaseField = "database_id"
)

// memoryLimit is how much of an upload is held in memory before spilling to
// temporary files.
const memoryLimit = 1 << 20

// UploadCSVHandler creates one task per row of an uploaded CSV file. Rows are
// imported best effort: the reply lists the outcome of every row and a
// failed row does not stop the rest.
func UploadCSVHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, srv.Config.MaxUploadBytes)

		if err := r.ParseMultipartForm(memoryLimit); err != nil {
			respondError(srv, w, r, "error parsing upload", uploadError(err))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile(UploadFileField)
		if err != nil {
			respondError(srv, w, r, "error reading upload", uploadError(err))
			return
		}
		defer file.Close()

		databaseID := r.FormValue(UploadDatabaseField)

		srv.Logger.Info("importing csv",
			"filename", header.Filename,
			"size", header.Size,
			"request_id", RequestID(r.Context()),
		)

		result, err := srv.Tasks.Import(r.Context(), databaseID, file)
		if err != nil {
			respondError(srv, w, r, "error importing csv", err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	})
}

// uploadError converts multipart errors into validation errors.
func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return &validationError{msg: fmt.Sprintf("upload exceeds %d bytes", maxErr.Limit)}
	case errors.Is(err, http.ErrMissingFile):
		return &validationError{
			msg:    "missing required field: " + UploadFileField,
			fields: []string{UploadFileField},
		}
	case errors.Is(err, http.ErrNotMultipart):
		return &validationError{msg: "request must be multipart/form-data"}
	default:
		return &validationError{msg: fmt.Sprintf("invalid upload: %v", err)}
	}
}
