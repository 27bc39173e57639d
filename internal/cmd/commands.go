package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/notion-relay/internal/cmd/base"
	"github.com/hashicorp-forge/notion-relay/internal/cmd/commands/importcmd"
	"github.com/hashicorp-forge/notion-relay/internal/cmd/commands/serve"
	"github.com/hashicorp-forge/notion-relay/internal/cmd/commands/taskscmd"
	"github.com/hashicorp-forge/notion-relay/internal/cmd/commands/validate"
	"github.com/hashicorp-forge/notion-relay/internal/cmd/commands/version"
)

// commands returns the factories for every subcommand.
func commands(log hclog.Logger, ui cli.Ui) map[string]cli.CommandFactory {
	b := base.NewCommand(log, ui)

	return map[string]cli.CommandFactory{
		"import": func() (cli.Command, error) {
			return &importcmd.Command{Command: b}, nil
		},
		"serve": func() (cli.Command, error) {
			return &serve.Command{Command: b}, nil
		},
		"tasks": func() (cli.Command, error) {
			return &taskscmd.Command{Command: b}, nil
		},
		"validate": func() (cli.Command, error) {
			return &validate.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
