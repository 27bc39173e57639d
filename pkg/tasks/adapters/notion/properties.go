package notion

import (
	"strings"
	"time"

	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
)

// maxTextLength is the longest content Notion accepts in one rich text
// segment.
const maxTextLength = 2000

// page is a Notion page object.
type page struct {
	Object      string              `json:"object"`
	ID          string              `json:"id"`
	CreatedTime time.Time           `json:"created_time"`
	Archived    bool                `json:"archived"`
	Properties  map[string]property `json:"properties"`
}

// property is a page property value. Only the types used by task databases
// are modeled.
type property struct {
	Type     string        `json:"type,omitempty"`
	Title    []richText    `json:"title,omitempty"`
	RichText []richText    `json:"rich_text,omitempty"`
	Select   *selectOption `json:"select,omitempty"`
}

type richText struct {
	Type      string       `json:"type,omitempty"`
	Text      *textContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

type textContent struct {
	Content string `json:"content"`
}

type selectOption struct {
	Name string `json:"name"`
}

// queryResponse is a page of results from a database query.
type queryResponse struct {
	Object     string  `json:"object"`
	Results    []page  `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// database is a Notion database object. Only property types are decoded.
type database struct {
	Object     string `json:"object"`
	ID         string `json:"id"`
	Properties map[string]struct {
		Type string `json:"type"`
	} `json:"properties"`
}

// apiError is the error body returned by the Notion API.
type apiError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// expectedPropertyTypes maps required task properties to their Notion type.
var expectedPropertyTypes = map[string]string{
	tasks.PropertyCommand: "title",
	tasks.PropertyAction:  "rich_text",
	tasks.PropertyStatus:  "select",
}

// plainText joins the text of all segments.
func plainText(segments []richText) string {
	var b strings.Builder
	for _, s := range segments {
		switch {
		case s.PlainText != "":
			b.WriteString(s.PlainText)
		case s.Text != nil:
			b.WriteString(s.Text.Content)
		}
	}
	return b.String()
}

// textSegments splits s into segments Notion accepts.
func textSegments(s string) []richText {
	runes := []rune(s)
	if len(runes) == 0 {
		return []richText{}
	}

	var segments []richText
	for len(runes) > 0 {
		n := min(len(runes), maxTextLength)
		segments = append(segments, richText{
			Type: "text",
			Text: &textContent{Content: string(runes[:n])},
		})
		runes = runes[n:]
	}
	return segments
}

func titleProperty(s string) property {
	return property{Title: textSegments(s)}
}

func richTextProperty(s string) property {
	return property{RichText: textSegments(s)}
}

func selectProperty(name string) property {
	return property{Select: &selectOption{Name: name}}
}

// text returns the string value of a page property regardless of its type.
func (p page) text(name string) string {
	prop, ok := p.Properties[name]
	if !ok {
		return ""
	}

	switch prop.Type {
	case "title":
		return plainText(prop.Title)
	case "rich_text":
		return plainText(prop.RichText)
	case "select":
		if prop.Select != nil {
			return prop.Select.Name
		}
		return ""
	}

	// Untyped values only appear in request payloads.
	if prop.Select != nil {
		return prop.Select.Name
	}
	if len(prop.Title) > 0 {
		return plainText(prop.Title)
	}
	return plainText(prop.RichText)
}

// toTask converts a Notion page into a task.
func (p page) toTask() tasks.Task {
	return tasks.Task{
		ID:          p.ID,
		Command:     p.text(tasks.PropertyCommand),
		Action:      p.text(tasks.PropertyAction),
		Status:      p.text(tasks.PropertyStatus),
		CreatedTime: p.CreatedTime,
		CreatedAt:   p.text(tasks.PropertyCreatedAt),
		LastUpdated: p.text(tasks.PropertyLastUpdated),
	}
}

// newTaskProperties builds the properties for a new page. Empty action and
// status values are left out.
func newTaskProperties(t tasks.NewTask) map[string]property {
	ts := tasks.FormatTimestamp(t.Timestamp)
	props := map[string]property{
		tasks.PropertyCommand:     titleProperty(t.Command),
		tasks.PropertyCreatedAt:   richTextProperty(ts),
		tasks.PropertyLastUpdated: richTextProperty(ts),
	}
	if t.Action != "" {
		props[tasks.PropertyAction] = richTextProperty(t.Action)
	}
	if t.Status != "" {
		props[tasks.PropertyStatus] = selectProperty(t.Status)
	}
	return props
}

// patchProperties builds the properties for a page update.
func patchProperties(p tasks.Patch) map[string]property {
	props := map[string]property{}
	if p.Action != nil {
		props[tasks.PropertyAction] = richTextProperty(*p.Action)
	}
	if p.Status != nil {
		props[tasks.PropertyStatus] = selectProperty(*p.Status)
	}
	if p.LastUpdated != nil {
		props[tasks.PropertyLastUpdated] = richTextProperty(tasks.FormatTimestamp(*p.LastUpdated))
	}
	return props
}
