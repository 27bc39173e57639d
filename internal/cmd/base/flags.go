package base

import (
	"flag"
	"fmt"
	"strings"
)

// FlagSet wraps a standard flag set with help text rendering.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Help renders every flag with its default and usage.
func (f *FlagSet) Help() string {
	var b strings.Builder
	b.WriteString("\n\nOptions:\n")

	f.VisitAll(func(fl *flag.Flag) {
		if fl.DefValue == "" {
			fmt.Fprintf(&b, "\n  -%s\n", fl.Name)
		} else {
			fmt.Fprintf(&b, "\n  -%s=%s\n", fl.Name, fl.DefValue)
		}
		fmt.Fprintf(&b, "      %s\n", fl.Usage)
	})

	return strings.TrimRight(b.String(), "\n")
}

// ConfigFlags are the flags shared by every command that loads
// configuration.
type ConfigFlags struct {
	Config  string
	EnvFile string
}

// Register adds the configuration flags to f.
func (c *ConfigFlags) Register(f *FlagSet) {
	f.StringVar(
		&c.Config, "config", "",
		"Path to an HCL configuration file",
	)
	f.StringVar(
		&c.EnvFile, "env-file", ".env",
		"Path to a dotenv file; ignored if it does not exist",
	)
}
