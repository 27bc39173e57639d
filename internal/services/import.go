package services

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp-forge/notion-relay/pkg/csvimport"
	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
)

// Row outcomes of an import.
const (
	OutcomeCreated = "created"
	OutcomeFailed  = "failed"
)

// ImportRowResult is the outcome of importing one CSV row.
type ImportRowResult struct {
	Row     int    `json:"row" yaml:"row"`
	Command string `json:"command" yaml:"command"`
	Outcome string `json:"outcome" yaml:"outcome"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ImportResult is the outcome of a CSV import.
type ImportResult struct {
	DatabaseID     string            `json:"database_id" yaml:"database_id"`
	Total          int               `json:"total" yaml:"total"`
	Created        int               `json:"created" yaml:"created"`
	Failed         int               `json:"failed" yaml:"failed"`
	IgnoredColumns []string          `json:"ignored_columns" yaml:"ignored_columns"`
	Rows           []ImportRowResult `json:"rows" yaml:"rows"`
}

// Import creates one task per CSV row. Rows are processed in file order and
// each row succeeds or fails on its own; a failed row never stops the rest
// of the file. An empty databaseID uses the default database.
//
// An error is returned only when the file as a whole cannot be read; it
// wraps csvimport.ErrInvalidFile.
func (s *TaskService) Import(ctx context.Context, databaseID string, r io.Reader) (*ImportResult, error) {
	if databaseID == "" {
		databaseID = s.databaseID
	}

	f, err := csvimport.Parse(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		DatabaseID:     databaseID,
		Total:          len(f.Rows),
		IgnoredColumns: f.IgnoredColumns,
		Rows:           make([]ImportRowResult, 0, len(f.Rows)),
	}
	if result.IgnoredColumns == nil {
		result.IgnoredColumns = []string{}
	}

	for _, row := range f.Rows {
		rr := ImportRowResult{
			Row:     row.Number,
			Command: row.Record.Command,
			Outcome: OutcomeCreated,
		}

		switch {
		case row.Err != nil:
			rr.Outcome = OutcomeFailed
			rr.Error = row.Err.Error()
		case ctx.Err() != nil:
			rr.Outcome = OutcomeFailed
			rr.Error = fmt.Sprintf("import canceled: %v", ctx.Err())
		default:
			_, err := s.provider.Create(ctx, databaseID, tasks.NewTask{
				Command:   row.Record.Command,
				Action:    row.Record.Action,
				Status:    row.Record.Status,
				Timestamp: s.localNow(),
			})
			if err != nil {
				s.logger.Warn("error importing row",
					"row", row.Number,
					"command", row.Record.Command,
					"error", err,
				)
				rr.Outcome = OutcomeFailed
				rr.Error = tasks.PublicMessage(err)
			}
		}

		if rr.Outcome == OutcomeCreated {
			result.Created++
		} else {
			result.Failed++
		}
		result.Rows = append(result.Rows, rr)
	}

	s.logger.Info("imported csv",
		"database_id", databaseID,
		"total", result.Total,
		"created", result.Created,
		"failed", result.Failed,
	)

	return result, nil
}
