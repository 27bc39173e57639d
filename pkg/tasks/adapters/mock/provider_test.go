package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
)

func TestFakeProvider_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := NewFakeProvider()

	created, err := f.Create(ctx, "db", tasks.NewTask{Command: "Buy milk", Action: "shopping", Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, "fake-1", created.ID)

	list, err := f.List(ctx, "db")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Buy milk", list[0].Command)

	done := "Done"
	updated, err := f.Update(ctx, created.ID, tasks.Patch{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, "Done", updated.Status)
	assert.Equal(t, "shopping", updated.Action)

	require.NoError(t, f.Archive(ctx, created.ID))
	list, err = f.List(ctx, "db")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, f.Archive(ctx, created.ID), tasks.ErrNotFound)
	assert.Equal(t, 1, f.CallCount(OpCreate))
	assert.Equal(t, 2, f.CallCount(OpList))
	assert.Equal(t, 2, f.CallCount(OpArchive))
}

func TestFakeProvider_ListOrder(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFakeProvider()
	f.Seed("db",
		tasks.Task{Command: "b", CreatedTime: t0.Add(time.Hour)},
		tasks.Task{Command: "a", CreatedTime: t0},
	)

	list, err := f.List(context.Background(), "db")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Command)
	assert.Equal(t, "b", list[1].Command)
}

func TestFakeProvider_InjectedErrors(t *testing.T) {
	ctx := context.Background()
	f := NewFakeProvider()
	f.Errors[OpList] = tasks.ErrRateLimited
	f.CreateErr = func(nt tasks.NewTask) error {
		if nt.Command == "bad" {
			return tasks.ErrRemoteRejected
		}
		return nil
	}

	_, err := f.List(ctx, "db")
	assert.ErrorIs(t, err, tasks.ErrRateLimited)

	_, err = f.Create(ctx, "db", tasks.NewTask{Command: "bad"})
	assert.ErrorIs(t, err, tasks.ErrRemoteRejected)

	_, err = f.Create(ctx, "db", tasks.NewTask{Command: "good"})
	assert.NoError(t, err)
	assert.Len(t, f.CallsFor(OpCreate), 2)

	f.Reset()
	assert.Equal(t, 0, f.CallCount(""))
}

func TestFakeProvider_ValidateSchema(t *testing.T) {
	ctx := context.Background()
	f := NewFakeProvider()

	assert.NoError(t, f.ValidateSchema(ctx, "db"))

	f.Properties["db"] = []string{"Command"}
	err := f.ValidateSchema(ctx, "db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Action"`)
	assert.Contains(t, err.Error(), `"Status"`)

	f.Errors[OpValidateSchema] = errors.New("boom")
	assert.Error(t, f.ValidateSchema(ctx, "db"))
}
