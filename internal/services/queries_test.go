package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
	"github.com/hashicorp-forge/notion-relay/pkg/tasks/adapters/mock"
)

func seedQueries(t *testing.T) *TaskService {
	t.Helper()

	s, _ := newTestService(t,
		tasks.Task{Command: "🛒 Buy milk", Action: "shopping", Status: "pending"},
		tasks.Task{Command: "Call mom", Action: "family", Status: "Done"},
		tasks.Task{Command: "Buy bread", Action: "shopping", Status: "done"},
		tasks.Task{Command: "Water plants", Action: "home"},
	)
	return s
}

func commands(ts []tasks.Task) []string {
	result := make([]string, 0, len(ts))
	for _, t := range ts {
		result = append(result, t.Command)
	}
	return result
}

func TestTaskService_Search(t *testing.T) {
	s := seedQueries(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"buy", []string{"🛒 Buy milk", "Buy bread"}},
		{"BUY MILK", []string{"🛒 Buy milk"}},
		{"🛒 milk", []string{"🛒 Buy milk"}},
		{"🛒", []string{"🛒 Buy milk"}},
		{"nothing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := s.Search(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, commands(got))
		})
	}
}

func TestTaskService_Filter(t *testing.T) {
	s := seedQueries(t)

	got, err := s.Filter(context.Background(), "DONE")
	require.NoError(t, err)
	assert.Equal(t, []string{"Call mom", "Buy bread"}, commands(got))
}

func TestTaskService_GroupedAndCounts(t *testing.T) {
	s := seedQueries(t)

	grouped, err := s.Grouped(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"pending": {"🛒 Buy milk"},
		"Done":    {"Call mom"},
		"done":    {"Buy bread"},
		NoStatus:  {"Water plants"},
	}, grouped)

	counts, err := s.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"pending": 1, "Done": 1, "done": 1, NoStatus: 1}, counts)
}

func TestTaskService_GetByCommand(t *testing.T) {
	s := seedQueries(t)

	got, err := s.GetByCommand(context.Background(), "call MOM")
	require.NoError(t, err)
	assert.Equal(t, "Call mom", got.Command)

	_, err = s.GetByCommand(context.Background(), "call")
	assert.ErrorIs(t, err, tasks.ErrNotFound)
}

func TestTaskService_DailySummary(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC) // May 31 in UTC-5

	f := mock.NewFakeProvider()
	f.Seed(testDB,
		tasks.Task{Command: "today by property", CreatedAt: "2024-05-31T20:15:00.000000"},
		tasks.Task{Command: "yesterday by property", CreatedAt: "2024-05-30T23:59:59.000000"},
		tasks.Task{Command: "today by remote time", CreatedTime: time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC)},
		tasks.Task{Command: "tomorrow by remote time", CreatedTime: time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)},
		tasks.Task{Command: "garbage falls back", CreatedAt: "not a date", CreatedTime: time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC)},
		tasks.Task{Command: "no timestamps"},
	)

	s := NewTaskService(f, testDB,
		WithClock(func() time.Time { return now }),
		WithLocation(loc),
	)

	got, err := s.DailySummary(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"today by property",
		"today by remote time",
		"garbage falls back",
	}, commands(got))
}

func TestTaskService_DailySummary_CreatedAcrossDayBoundary(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC) // May 31 in UTC-5

	f := mock.NewFakeProvider()
	// The remote creation time is useless here, so only "Created At" counts.
	f.Now = func() time.Time { return time.Time{} }

	s := NewTaskService(f, testDB,
		WithClock(func() time.Time { return now }),
		WithLocation(loc),
	)

	_, err := s.Create(context.Background(), "Buy milk", "shopping", "pending")
	require.NoError(t, err)
	_, err = s.Import(context.Background(), "", strings.NewReader("command\nWalk dog\n"))
	require.NoError(t, err)
	_, err = s.Duplicate(context.Background(), "Buy milk")
	require.NoError(t, err)

	require.Len(t, f.Databases[testDB], 3)
	assert.Equal(t, "2024-05-31T21:00:00.000000", f.Databases[testDB][0].CreatedAt)

	got, err := s.DailySummary(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"Buy milk",
		"Walk dog",
		"Buy milk" + tasks.CopySuffix,
	}, commands(got))
}

func TestTaskService_QueryRemoteFailure(t *testing.T) {
	s, f := newTestService(t)
	f.Errors[mock.OpList] = tasks.ErrRemoteUnauthorized

	_, err := s.All(context.Background())
	assert.ErrorIs(t, err, tasks.ErrRemoteUnauthorized)
}
