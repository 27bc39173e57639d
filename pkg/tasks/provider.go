package tasks

import (
	"context"
)

// Provider reads and mutates tasks in a remote task database.
//
// Every method takes the database ID explicitly so a single provider can
// serve the configured default database and databases named per request
// (CSV import).
type Provider interface {
	// List returns every task in the database, following remote pagination.
	// Tasks are returned oldest first.
	List(ctx context.Context, databaseID string) ([]Task, error)

	// Create inserts a new task and returns it as stored.
	Create(ctx context.Context, databaseID string, task NewTask) (*Task, error)

	// Update applies a patch to the task with the given ID.
	Update(ctx context.Context, id string, patch Patch) (*Task, error)

	// Archive removes the task with the given ID from the database.
	Archive(ctx context.Context, id string) error
}

// SchemaValidator is implemented by providers that can check that a database
// defines the properties in RequiredProperties.
type SchemaValidator interface {
	ValidateSchema(ctx context.Context, databaseID string) error
}
