package taskscmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hashicorp-forge/notion-relay/internal/cmd/base"
	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
)

// Output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// record is the printed form of a task.
type record struct {
	Command string `json:"command" yaml:"command"`
	Action  string `json:"action" yaml:"action"`
	Status  string `json:"status" yaml:"status"`
}

type Command struct {
	*base.Command

	configFlags base.ConfigFlags
	flagFormat  string
	flagStatus  string
	flagDev     bool
}

func (c *Command) Synopsis() string {
	return "Print the tasks in the task database"
}

func (c *Command) Help() string {
	return `Usage: notion-relay tasks [options]

  Print every task in the configured database, oldest first.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("tasks", flag.ContinueOnError))

	c.configFlags.Register(f)
	f.StringVar(
		&c.flagFormat, "format", FormatYAML,
		"Output format: yaml or json",
	)
	f.StringVar(
		&c.flagStatus, "status", "",
		"Only print tasks with this status, ignoring case",
	)
	f.BoolVar(
		&c.flagDev, "dev", false,
		"Read from the in-memory task store",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	format := strings.ToLower(c.flagFormat)
	if format != FormatYAML && format != FormatJSON {
		c.UI.Error(fmt.Sprintf("invalid format %q: must be yaml or json", c.flagFormat))
		return 1
	}

	cfg, err := c.LoadConfig(c.configFlags, c.flagDev)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}
	log := c.Logger(cfg)

	svc, _, err := c.TaskService(cfg, log)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	var ts []tasks.Task
	if c.flagStatus != "" {
		ts, err = svc.Filter(c.Context, c.flagStatus)
	} else {
		ts, err = svc.All(c.Context)
	}
	if err != nil {
		c.UI.Error(fmt.Sprintf("error listing tasks: %v", err))
		return 1
	}

	records := make([]record, 0, len(ts))
	for _, t := range ts {
		records = append(records, record{
			Command: t.Command,
			Action:  t.Action,
			Status:  t.Status,
		})
	}

	out, err := encode(format, records)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error encoding tasks: %v", err))
		return 1
	}
	c.UI.Output(out)

	return 0
}

func encode(format string, records []record) (string, error) {
	if format == FormatJSON {
		b, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	b, err := yaml.Marshal(records)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}
