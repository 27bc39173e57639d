package notion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
)

// pageSize is the maximum page size of a database query.
const pageSize = 100

// List returns every task in the database, oldest first.
func (p *Provider) List(ctx context.Context, databaseID string) ([]tasks.Task, error) {
	if databaseID == "" {
		return nil, &tasks.Error{Op: "List", Err: tasks.ErrInvalidInput, Msg: "database ID is required"}
	}

	path := fmt.Sprintf("/v1/databases/%s/query", url.PathEscape(databaseID))

	var result []tasks.Task
	var cursor string
	for {
		body := map[string]interface{}{
			"page_size": pageSize,
			"sorts": []map[string]string{
				{"timestamp": "created_time", "direction": "ascending"},
			},
		}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		var resp queryResponse
		if err := p.doRequest(ctx, "List", http.MethodPost, path, body, &resp); err != nil {
			return nil, err
		}

		for _, pg := range resp.Results {
			if pg.Archived {
				continue
			}
			result = append(result, pg.toTask())
		}

		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			break
		}
		cursor = *resp.NextCursor
	}

	return result, nil
}

// Create inserts a new page into the database.
func (p *Provider) Create(ctx context.Context, databaseID string, t tasks.NewTask) (*tasks.Task, error) {
	if databaseID == "" {
		return nil, &tasks.Error{Op: "Create", Err: tasks.ErrInvalidInput, Msg: "database ID is required"}
	}

	body := map[string]interface{}{
		"parent":     map[string]string{"database_id": databaseID},
		"properties": newTaskProperties(t),
	}

	var pg page
	if err := p.doRequest(ctx, "Create", http.MethodPost, "/v1/pages", body, &pg); err != nil {
		return nil, err
	}

	task := pg.toTask()
	return &task, nil
}

// Update applies a patch to a page.
func (p *Provider) Update(ctx context.Context, id string, patch tasks.Patch) (*tasks.Task, error) {
	if id == "" {
		return nil, &tasks.Error{Op: "Update", Err: tasks.ErrInvalidInput, Msg: "page ID is required"}
	}
	if patch.IsEmpty() {
		return nil, &tasks.Error{Op: "Update", Err: tasks.ErrInvalidInput, Msg: "empty patch"}
	}

	body := map[string]interface{}{
		"properties": patchProperties(patch),
	}

	var pg page
	path := "/v1/pages/" + url.PathEscape(id)
	if err := p.doRequest(ctx, "Update", http.MethodPatch, path, body, &pg); err != nil {
		return nil, err
	}

	task := pg.toTask()
	return &task, nil
}

// Archive archives a page, which is how Notion deletes database entries.
func (p *Provider) Archive(ctx context.Context, id string) error {
	if id == "" {
		return &tasks.Error{Op: "Archive", Err: tasks.ErrInvalidInput, Msg: "page ID is required"}
	}

	body := map[string]interface{}{
		"archived": true,
	}

	path := "/v1/pages/" + url.PathEscape(id)
	return p.doRequest(ctx, "Archive", http.MethodPatch, path, body, nil)
}

// ValidateSchema checks that the database defines the Command, Action and
// Status properties with the expected types. All problems are reported.
func (p *Provider) ValidateSchema(ctx context.Context, databaseID string) error {
	if databaseID == "" {
		return &tasks.Error{Op: "ValidateSchema", Err: tasks.ErrInvalidInput, Msg: "database ID is required"}
	}

	var db database
	path := "/v1/databases/" + url.PathEscape(databaseID)
	if err := p.doRequest(ctx, "ValidateSchema", http.MethodGet, path, nil, &db); err != nil {
		return err
	}

	var result *multierror.Error
	names := make([]string, 0, len(expectedPropertyTypes))
	for name := range expectedPropertyTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		want := expectedPropertyTypes[name]
		prop, ok := db.Properties[name]
		if !ok {
			result = multierror.Append(result,
				fmt.Errorf("missing required property %q", name))
			continue
		}
		if prop.Type != want {
			result = multierror.Append(result,
				fmt.Errorf("property %q has type %q, want %q", name, prop.Type, want))
		}
	}

	return result.ErrorOrNil()
}
