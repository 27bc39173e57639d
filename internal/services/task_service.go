package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
)

// TaskService turns commands into provider calls against the default task
// database.
type TaskService struct {
	provider   tasks.Provider
	databaseID string
	logger     hclog.Logger
	location   *time.Location
	now        func() time.Time
}

// Option configures a TaskService.
type Option func(*TaskService)

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(s *TaskService) {
		s.logger = l
	}
}

// WithClock sets the function used to read the current time.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

// WithLocation sets the time zone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *TaskService) {
		s.location = loc
	}
}

// NewTaskService creates a new task service.
func NewTaskService(provider tasks.Provider, databaseID string, opts ...Option) *TaskService {
	s := &TaskService{
		provider:   provider,
		databaseID: databaseID,
		logger:     hclog.NewNullLogger(),
		location:   time.UTC,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DatabaseID returns the default database ID.
func (s *TaskService) DatabaseID() string {
	return s.databaseID
}

// ValidateSchema checks the default database's properties if the provider
// supports it.
func (s *TaskService) ValidateSchema(ctx context.Context) error {
	v, ok := s.provider.(tasks.SchemaValidator)
	if !ok {
		return nil
	}
	return v.ValidateSchema(ctx, s.databaseID)
}

// Create always inserts a new task, even if one with the same command
// exists.
func (s *TaskService) Create(ctx context.Context, command, action, status string) (*tasks.Task, error) {
	t, err := s.provider.Create(ctx, s.databaseID, tasks.NewTask{
		Command:   command,
		Action:    action,
		Status:    status,
		Timestamp: s.localNow(),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	s.logger.Info("created task", "command", command)
	return t, nil
}

// Update overwrites the action and status of the task with the given
// command.
func (s *TaskService) Update(ctx context.Context, command, action, status string) (*tasks.Task, error) {
	target, err := s.resolve(ctx, "Update", command)
	if err != nil {
		return nil, err
	}

	now := s.localNow()
	t, err := s.provider.Update(ctx, target.ID, tasks.Patch{
		Action:      &action,
		Status:      &status,
		LastUpdated: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("error updating task: %w", err)
	}

	s.logger.Info("updated task", "command", command)
	return t, nil
}

// Delete removes the task with the given command and returns it as it was
// before removal.
func (s *TaskService) Delete(ctx context.Context, command string) (*tasks.Task, error) {
	target, err := s.resolve(ctx, "Delete", command)
	if err != nil {
		return nil, err
	}

	if err := s.provider.Archive(ctx, target.ID); err != nil {
		return nil, fmt.Errorf("error deleting task: %w", err)
	}

	s.logger.Info("deleted task", "command", command)
	return target, nil
}

// Complete marks the task with the given command as done.
func (s *TaskService) Complete(ctx context.Context, command string) (*tasks.Task, error) {
	target, err := s.resolve(ctx, "Complete", command)
	if err != nil {
		return nil, err
	}

	status := tasks.StatusDone
	now := s.localNow()
	t, err := s.provider.Update(ctx, target.ID, tasks.Patch{
		Status:      &status,
		LastUpdated: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("error completing task: %w", err)
	}

	s.logger.Info("completed task", "command", command)
	return t, nil
}

// Duplicate creates a copy of the task with the given command. Each call
// creates a new copy.
func (s *TaskService) Duplicate(ctx context.Context, command string) (*tasks.Task, error) {
	target, err := s.resolve(ctx, "Duplicate", command)
	if err != nil {
		return nil, err
	}

	t, err := s.provider.Create(ctx, s.databaseID, tasks.NewTask{
		Command:   target.Command + tasks.CopySuffix,
		Action:    target.Action,
		Status:    target.Status,
		Timestamp: s.localNow(),
	})
	if err != nil {
		return nil, fmt.Errorf("error duplicating task: %w", err)
	}

	s.logger.Info("duplicated task", "command", command)
	return t, nil
}

// localNow returns the current time in the service's time zone. Stored
// timestamps carry no zone, so they are always written in this one.
func (s *TaskService) localNow() time.Time {
	return s.now().In(s.location)
}

// list returns every task in the default database, oldest first. Tasks with
// equal creation times keep the order the provider returned them in.
func (s *TaskService) list(ctx context.Context) ([]tasks.Task, error) {
	ts, err := s.provider.List(ctx, s.databaseID)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}

	sort.SliceStable(ts, func(i, j int) bool {
		return ts[i].CreatedTime.Before(ts[j].CreatedTime)
	})
	return ts, nil
}

// resolve finds the oldest task whose command equals the given text
// exactly.
func (s *TaskService) resolve(ctx context.Context, op, command string) (*tasks.Task, error) {
	ts, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	for i := range ts {
		if ts[i].Command == command {
			return &ts[i], nil
		}
	}

	return nil, &tasks.Error{
		Op:  op,
		Err: tasks.ErrNotFound,
		Msg: fmt.Sprintf("no task with command %q", command),
	}
}
