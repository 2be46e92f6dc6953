// Package mcp exposes region selection to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"
	"log"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/regionsel/internal/capture"
	"github.com/1broseidon/regionsel/internal/config"
	"github.com/1broseidon/regionsel/internal/platform"
)

const (
	ServerName    = "regionsel"
	ServerVersion = "0.1.0"
)

// Deps are the collaborators behind the tools.
type Deps struct {
	Selector capture.Selector
	// Grab captures the virtual desktop for frozen selections.
	Grab func() (*capture.Frame, error)
	// Displays lists the attached displays.
	Displays func() ([]platform.DisplayReport, error)
	// Lock takes the single-session lock; nil skips locking.
	Lock func() (release func(), err error)
}

// Server is the MCP server for interactive region selection.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config
	deps      Deps
}

// NewServer creates an MCP server with the select_region and list_displays
// tools.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Selector == nil {
		return nil, fmt.Errorf("mcp server needs a selector")
	}
	if deps.Grab == nil {
		deps.Grab = capture.Virtual
	}

	s := &Server{
		config: cfg,
		deps:   deps,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	log.Printf("MCP: serving %s %s on stdio", ServerName, ServerVersion)
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "select_region",
		Description: "Ask the user to drag out a rectangle on screen. Blocks until the user confirms with Enter or a mouse release, or cancels with Escape. Returns the region in virtual-desktop pixels. With capture set, the screen is frozen first and the selected pixels are returned as an image.",
	}, s.handleSelectRegion)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List the attached displays with their position and size in virtual-desktop pixels, and the Xft DPI scale hint.",
	}, s.handleListDisplays)
}
