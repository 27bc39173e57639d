// Package mock provides an in-memory task provider for tests and local
// development.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
)

// Operation names recorded in Calls.
const (
	OpList           = "List"
	OpCreate         = "Create"
	OpUpdate         = "Update"
	OpArchive        = "Archive"
	OpValidateSchema = "ValidateSchema"
)

// Call records a single provider invocation.
type Call struct {
	Op         string
	DatabaseID string
	ID         string
	Task       tasks.NewTask
	Patch      tasks.Patch
}

// FakeProvider is an in-memory tasks.Provider. It records every call so
// tests can assert on the exact remote traffic an operation produced.
type FakeProvider struct {
	mu sync.RWMutex

	// Databases stores tasks by database ID in insertion order.
	Databases map[string][]*tasks.Task

	// Properties lists the properties each database defines. Databases
	// without an entry are treated as having the required properties.
	Properties map[string][]string

	// Calls tracks invocations for testing verification.
	Calls []Call

	// Errors injects a failure for every call of the named operation.
	Errors map[string]error

	// CreateErr, when set, is consulted for every Create call and may fail
	// selected inserts.
	CreateErr func(t tasks.NewTask) error

	// Now returns the remote creation time of new tasks.
	Now func() time.Time

	// nextID is used for generating unique IDs
	nextID int
}

// Compile-time interface checks.
var (
	_ tasks.Provider        = (*FakeProvider)(nil)
	_ tasks.SchemaValidator = (*FakeProvider)(nil)
)

// NewFakeProvider creates a new empty fake provider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Databases:  make(map[string][]*tasks.Task),
		Properties: make(map[string][]string),
		Errors:     make(map[string]error),
		Now:        time.Now,
		nextID:     1,
	}
}

// Seed stores tasks without recording calls. Tasks without an ID get one.
func (f *FakeProvider) Seed(databaseID string, ts ...tasks.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range ts {
		if t.ID == "" {
			t.ID = f.generateID()
		}
		f.Databases[databaseID] = append(f.Databases[databaseID], &t)
	}
}

// CallCount returns the number of recorded calls for an operation, or all
// calls when op is empty.
func (f *FakeProvider) CallCount(op string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if op == "" {
		return len(f.Calls)
	}
	n := 0
	for _, c := range f.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// CallsFor returns the recorded calls for an operation.
func (f *FakeProvider) CallsFor(op string) []Call {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var result []Call
	for _, c := range f.Calls {
		if c.Op == op {
			result = append(result, c)
		}
	}
	return result
}

// Reset clears recorded calls.
func (f *FakeProvider) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}

// generateID must be called with the lock held.
func (f *FakeProvider) generateID() string {
	id := fmt.Sprintf("fake-%d", f.nextID)
	f.nextID++
	return id
}

func (f *FakeProvider) record(c Call) error {
	f.Calls = append(f.Calls, c)
	if err := f.Errors[c.Op]; err != nil {
		return &tasks.Error{Op: c.Op, Err: err}
	}
	return nil
}

// find must be called with the lock held.
func (f *FakeProvider) find(id string) *tasks.Task {
	for _, ts := range f.Databases {
		for _, t := range ts {
			if t.ID == id {
				return t
			}
		}
	}
	return nil
}

// List returns copies of the tasks in a database, oldest first.
func (f *FakeProvider) List(ctx context.Context, databaseID string) ([]tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: OpList, DatabaseID: databaseID}); err != nil {
		return nil, err
	}

	result := make([]tasks.Task, 0, len(f.Databases[databaseID]))
	for _, t := range f.Databases[databaseID] {
		result = append(result, *t)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedTime.Before(result[j].CreatedTime)
	})
	return result, nil
}

// Create stores a new task.
func (f *FakeProvider) Create(ctx context.Context, databaseID string, nt tasks.NewTask) (*tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: OpCreate, DatabaseID: databaseID, Task: nt}); err != nil {
		return nil, err
	}
	if f.CreateErr != nil {
		if err := f.CreateErr(nt); err != nil {
			return nil, &tasks.Error{Op: OpCreate, Err: err}
		}
	}

	ts := tasks.FormatTimestamp(nt.Timestamp)
	t := &tasks.Task{
		ID:          f.generateID(),
		Command:     nt.Command,
		Action:      nt.Action,
		Status:      nt.Status,
		CreatedTime: f.Now(),
		CreatedAt:   ts,
		LastUpdated: ts,
	}
	f.Databases[databaseID] = append(f.Databases[databaseID], t)

	result := *t
	return &result, nil
}

// Update applies a patch to a stored task.
func (f *FakeProvider) Update(ctx context.Context, id string, patch tasks.Patch) (*tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: OpUpdate, ID: id, Patch: patch}); err != nil {
		return nil, err
	}

	t := f.find(id)
	if t == nil {
		return nil, &tasks.Error{Op: OpUpdate, Err: tasks.ErrNotFound, Msg: "object_not_found"}
	}
	if patch.Action != nil {
		t.Action = *patch.Action
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.LastUpdated != nil {
		t.LastUpdated = tasks.FormatTimestamp(*patch.LastUpdated)
	}

	result := *t
	return &result, nil
}

// Archive removes a stored task.
func (f *FakeProvider) Archive(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: OpArchive, ID: id}); err != nil {
		return err
	}

	for db, ts := range f.Databases {
		for i, t := range ts {
			if t.ID == id {
				f.Databases[db] = append(ts[:i:i], ts[i+1:]...)
				return nil
			}
		}
	}
	return &tasks.Error{Op: OpArchive, Err: tasks.ErrNotFound, Msg: "object_not_found"}
}

// ValidateSchema checks the configured Properties of a database.
func (f *FakeProvider) ValidateSchema(ctx context.Context, databaseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: OpValidateSchema, DatabaseID: databaseID}); err != nil {
		return err
	}

	props, ok := f.Properties[databaseID]
	if !ok {
		return nil
	}

	defined := make(map[string]bool, len(props))
	for _, p := range props {
		defined[p] = true
	}

	var result *multierror.Error
	for _, name := range tasks.RequiredProperties {
		if !defined[name] {
			result = multierror.Append(result,
				fmt.Errorf("missing required property %q", name))
		}
	}
	return result.ErrorOrNil()
}
