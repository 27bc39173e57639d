package validate

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/hashicorp-forge/notion-relay/internal/cmd/base"
)

type Command struct {
	*base.Command

	configFlags base.ConfigFlags
	flagTimeout time.Duration
}

func (c *Command) Synopsis() string {
	return "Validate configuration and the task database schema"
}

func (c *Command) Help() string {
	return `Usage: notion-relay validate [options]

  Load and validate the configuration, then check that the task database
  defines the Command, Action and Status properties with the expected
  types.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("validate", flag.ContinueOnError))

	c.configFlags.Register(f)
	f.DurationVar(
		&c.flagTimeout, "timeout", 30*time.Second,
		"How long to wait for the task database",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.LoadConfig(c.configFlags, false)
	if err != nil {
		c.UI.Error(fmt.Sprintf("invalid configuration: %v", err))
		return 1
	}
	c.UI.Info("Configuration is valid")

	log := c.Logger(cfg)
	svc, _, err := c.TaskService(cfg, log)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx, cancel := context.WithTimeout(c.Context, c.flagTimeout)
	defer cancel()

	if err := svc.ValidateSchema(ctx); err != nil {
		c.UI.Error(fmt.Sprintf("task database %s is invalid: %v", svc.DatabaseID(), err))
		return 1
	}
	c.UI.Info(fmt.Sprintf("Task database %s is valid", svc.DatabaseID()))

	return 0
}
