package importcmd

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/notion-relay/internal/cmd/base"
	"github.com/hashicorp-forge/notion-relay/internal/services"
)

type Command struct {
	*base.Command

	configFlags    base.ConfigFlags
	flagDatabaseID string
}

func (c *Command) Synopsis() string {
	return "Import tasks from a CSV file"
}

func (c *Command) Help() string {
	return `Usage: notion-relay import [options] <file.csv>

  Create one task per row of a local CSV file. The file needs a "command"
  column; "action" and "status" columns are optional and other columns are
  ignored.

  Rows are imported best effort. The command exits 1 if any row failed.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("import", flag.ContinueOnError))

	c.configFlags.Register(f)
	f.StringVar(
		&c.flagDatabaseID, "database-id", "",
		"Database to import into instead of the configured one",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("expected exactly one CSV file argument")
		return 1
	}
	path := f.Arg(0)

	cfg, err := c.LoadConfig(c.configFlags, false)
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

	file, err := c.Fs.Open(path)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error opening %s: %v", path, err))
		return 1
	}
	defer file.Close()

	result, err := svc.Import(c.Context, c.flagDatabaseID, file)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error importing %s: %v", path, err))
		return 1
	}

	c.printResult(result)

	if result.Failed > 0 {
		return 1
	}
	return 0
}

func (c *Command) printResult(result *services.ImportResult) {
	for _, row := range result.Rows {
		if row.Outcome == services.OutcomeFailed {
			c.UI.Warn(fmt.Sprintf("row %d: %s: %s", row.Row, row.Outcome, row.Error))
			continue
		}
		c.UI.Output(fmt.Sprintf("row %d: %s: %s", row.Row, row.Outcome, row.Command))
	}

	if len(result.IgnoredColumns) > 0 {
		c.UI.Warn(fmt.Sprintf("ignored columns: %v", result.IgnoredColumns))
	}

	c.UI.Info(fmt.Sprintf("Imported %d of %d rows into %s (%d failed)",
		result.Created, result.Total, result.DatabaseID, result.Failed))
}
