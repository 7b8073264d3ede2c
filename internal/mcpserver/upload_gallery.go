package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mwestall/shopfront/internal/siteservice"
)

func newUploadGalleryTool() mcp.Tool {
	return mcp.NewTool("upload_gallery_image",
		mcp.WithDescription("Upload an image to the gallery. Data must be base64-encoded; "+
			"the declared mimetype has to match the filename extension."),
		mcp.WithString("password", mcp.Required(), mcp.Description("Admin password")),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Original filename, e.g. shop.jpg")),
		mcp.WithString("mimetype", mcp.Required(), mcp.Description("Image MIME type (image/jpeg, image/png, image/gif, image/webp)")),
		mcp.WithString("data", mcp.Required(), mcp.Description("Base64-encoded image bytes")),
	)
}

func (s *Server) uploadGalleryImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	password, err := req.RequireString("password")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mimetype, err := req.RequireString("mimetype")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	encoded, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid base64 data: %v", err)), nil
		}
	}

	file := siteservice.UploadFile{
		Name: filename,
		Mime: mimetype,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}

	entries, err := s.svc.UploadGalleryImages(ctx, password, []siteservice.UploadFile{file})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(entries[0], "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
