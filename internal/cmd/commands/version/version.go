package version

import (
	"github.com/hashicorp-forge/notion-relay/internal/cmd/base"
	"github.com/hashicorp-forge/notion-relay/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: notion-relay version

  Print the version of this binary.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.String())
	return 0
}
