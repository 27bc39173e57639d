package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := "Command,Action,Status,Created At\n" +
		"Buy milk,shopping,pending,2024-01-01\n" +
		"Call mom, family ,Done,\n"

	f, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"command", "action", "status", "created_at"}, f.Headers)
	assert.Equal(t, []string{"created_at"}, f.IgnoredColumns)
	require.Len(t, f.Rows, 2)
	assert.Equal(t, 0, f.Failed())

	assert.Equal(t, Row{
		Number: 1,
		Record: Record{Command: "Buy milk", Action: "shopping", Status: "pending"},
	}, f.Rows[0])
	assert.Equal(t, Record{Command: "Call mom", Action: "family", Status: "Done"}, f.Rows[1].Record)
}

func TestParse_HeaderNormalization(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"lower case", "command,action,status"},
		{"upper case", "COMMAND,ACTION,STATUS"},
		{"padded", " Command , Action , Status "},
		{"byte order mark", "\ufeffCommand,Action,Status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(strings.NewReader(tt.header + "\nBuy milk,shopping,pending\n"))
			require.NoError(t, err)
			require.Len(t, f.Rows, 1)
			assert.Equal(t, Record{Command: "Buy milk", Action: "shopping", Status: "pending"}, f.Rows[0].Record)
			assert.Empty(t, f.IgnoredColumns)
		})
	}
}

func TestParse_RowFailures(t *testing.T) {
	input := "command,action,status\n" +
		"Buy milk,shopping,pending\n" +
		"too,few\n" +
		",no command,pending\n" +
		"bad \"quote,x,y\n" +
		"Call mom,family,Done\n"

	f, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, f.Rows, 5)
	assert.Equal(t, 3, f.Failed())

	assert.NoError(t, f.Rows[0].Err)
	assert.EqualError(t, f.Rows[1].Err, "row has 2 fields, header has 3")
	assert.EqualError(t, f.Rows[2].Err, "command is required")
	require.Error(t, f.Rows[3].Err)
	assert.Contains(t, f.Rows[3].Err.Error(), "malformed row")
	assert.NoError(t, f.Rows[4].Err)
	assert.Equal(t, 5, f.Rows[4].Number)
	assert.Equal(t, "Call mom", f.Rows[4].Record.Command)
}

func TestParse_Deterministic(t *testing.T) {
	input := "command,action\nA,1\nB\nC,3\n"

	first, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	second, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParse_InvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", "", "file is empty"},
		{"header only", "command,action,status\n", "no data rows"},
		{"no command column", "action,status\nshopping,pending\n", `missing "command" column`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFile)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_DuplicateHeaders(t *testing.T) {
	f, err := Parse(strings.NewReader("command,Command,status\nfirst,second,pending\n"))
	require.NoError(t, err)
	require.Len(t, f.Rows, 1)
	assert.Equal(t, "first", f.Rows[0].Record.Command)
}
