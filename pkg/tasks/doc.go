// Package tasks defines the task record, the provider contract used to reach
// the remote document database, and the error taxonomy shared by providers.
//
// Providers live under pkg/tasks/adapters:
//
//   - notion: talks to the Notion REST API
//   - mock: in-memory provider for tests and local development
package tasks
