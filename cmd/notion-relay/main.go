package main

import (
	"os"

	"github.com/hashicorp-forge/notion-relay/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
