package server

import (
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/notion-relay/internal/config"
	"github.com/hashicorp-forge/notion-relay/internal/services"
)

// Server contains the server configuration.
type Server struct {
	// Config is the immutable config for the server.
	Config *config.Config

	// Tasks resolves commands and performs task operations against the
	// remote task database.
	Tasks *services.TaskService

	// Logger is the logger for the server.
	Logger hclog.Logger
}
