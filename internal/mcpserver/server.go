// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Shopfront admin tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mwestall/shopfront/internal/siteservice"
)

// Server wraps the MCP server with Shopfront tools.
type Server struct {
	mcp *server.MCPServer
	svc *siteservice.Service
}

// New creates a new MCP server with all Shopfront tools registered.
// Mutating tools take the admin password as an argument; it is checked
// by the service exactly as on the HTTP path.
func New(svc *siteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Shopfront",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Read the current open/closed status and notice text."),
	), s.getStatus)

	s.mcp.AddTool(mcp.NewTool("set_status",
		mcp.WithDescription("Set the open/closed status and optional notice text."),
		mcp.WithString("password", mcp.Required(), mcp.Description("Admin password")),
		mcp.WithBoolean("status", mcp.Required(), mcp.Description("true for open, false for closed")),
		mcp.WithString("notice", mcp.Description("Optional notice text, max 500 characters")),
	), s.setStatus)

	s.mcp.AddTool(mcp.NewTool("list_gallery",
		mcp.WithDescription("List all gallery images with their metadata."),
	), s.listGallery)

	s.mcp.AddTool(newUploadGalleryTool(), s.uploadGalleryImage)

	s.mcp.AddTool(mcp.NewTool("delete_gallery_image",
		mcp.WithDescription("Delete a gallery image by its stored filename."),
		mcp.WithString("password", mcp.Required(), mcp.Description("Admin password")),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Stored filename as returned by list_gallery")),
	), s.deleteGalleryImage)

	s.mcp.AddTool(mcp.NewTool("get_hero",
		mcp.WithDescription("Read the current hero background image metadata."),
	), s.getHero)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, err := s.svc.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) setStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	password, err := req.RequireString("password")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	open, err := req.RequireBool("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notice := req.GetString("notice", "")

	rec, err := s.svc.SetStatus(ctx, password, open, notice)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listGallery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, err := s.svc.Gallery(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rec.Images, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) deleteGalleryImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	password, err := req.RequireString("password")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteGalleryImage(ctx, password, filename); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", filename)), nil
}

func (s *Server) getHero(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, err := s.svc.Hero(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !rec.IsSet() {
		return mcp.NewToolResultText("no hero image set"), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
