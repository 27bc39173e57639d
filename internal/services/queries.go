package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/forPelevin/gomoji"

	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
)

// NoStatus groups tasks that have no status.
const NoStatus = "No Status"

// All returns every task in the default database, oldest first.
func (s *TaskService) All(ctx context.Context) ([]tasks.Task, error) {
	return s.list(ctx)
}

// Search returns tasks whose command contains query. Matching ignores case
// and emoji.
func (s *TaskService) Search(ctx context.Context, query string) ([]tasks.Task, error) {
	ts, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	q := normalizeSearchText(query)
	stripEmoji := q != ""
	if !stripEmoji {
		// The query is only emoji; match it literally.
		q = strings.ToLower(strings.TrimSpace(query))
	}

	result := []tasks.Task{}
	for _, t := range ts {
		cmd := strings.ToLower(t.Command)
		if stripEmoji {
			cmd = normalizeSearchText(t.Command)
		}
		if strings.Contains(cmd, q) {
			result = append(result, t)
		}
	}
	return result, nil
}

// Filter returns tasks whose status equals status, ignoring case.
func (s *TaskService) Filter(ctx context.Context, status string) ([]tasks.Task, error) {
	ts, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	result := []tasks.Task{}
	for _, t := range ts {
		if strings.EqualFold(t.Status, status) {
			result = append(result, t)
		}
	}
	return result, nil
}

// Grouped returns task commands keyed by status.
func (s *TaskService) Grouped(ctx context.Context) (map[string][]string, error) {
	ts, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	result := map[string][]string{}
	for _, t := range ts {
		key := statusKey(t)
		result[key] = append(result[key], t.Command)
	}
	return result, nil
}

// StatusCounts returns the number of tasks per status.
func (s *TaskService) StatusCounts(ctx context.Context) (map[string]int, error) {
	ts, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	result := map[string]int{}
	for _, t := range ts {
		result[statusKey(t)]++
	}
	return result, nil
}

// GetByCommand returns the oldest task whose command equals command,
// ignoring case.
func (s *TaskService) GetByCommand(ctx context.Context, command string) (*tasks.Task, error) {
	ts, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	for i := range ts {
		if strings.EqualFold(ts[i].Command, command) {
			return &ts[i], nil
		}
	}

	return nil, &tasks.Error{
		Op:  "GetByCommand",
		Err: tasks.ErrNotFound,
		Msg: fmt.Sprintf("no task with command %q", command),
	}
}

// DailySummary returns tasks created today in the service's time zone.
func (s *TaskService) DailySummary(ctx context.Context) ([]tasks.Task, error) {
	ts, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	today := s.localNow()
	result := []tasks.Task{}
	for _, t := range ts {
		created, ok := s.createdAt(t)
		if !ok {
			continue
		}
		if sameDay(created, today) {
			result = append(result, t)
		}
	}
	return result, nil
}

// createdAt returns when a task was created, preferring the "Created At"
// property and falling back to the remote creation time.
func (s *TaskService) createdAt(t tasks.Task) (time.Time, bool) {
	if t.CreatedAt != "" {
		parsed, err := dateparse.ParseIn(t.CreatedAt, s.location)
		if err == nil {
			return parsed.In(s.location), true
		}
		s.logger.Debug("unparseable created at value",
			"command", t.Command,
			"value", t.CreatedAt,
			"error", err,
		)
	}
	if !t.CreatedTime.IsZero() {
		return t.CreatedTime.In(s.location), true
	}
	return time.Time{}, false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func statusKey(t tasks.Task) string {
	if t.Status == "" {
		return NoStatus
	}
	return t.Status
}

// normalizeSearchText lowercases s, removes emoji and collapses whitespace.
func normalizeSearchText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(gomoji.RemoveEmojis(s))), " ")
}
