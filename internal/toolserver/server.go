// Package toolserver exposes the worker's tools over the Model Context Protocol.
package toolserver

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "docnotes-tools"
	ServerVersion = "1.0.0"

	ToolUploadSummary = "upload_summary_to_notes_service"
	ToolExtractText   = "extract_text_from_document"
)

type NotesUploader interface {
	UploadSummary(ctx context.Context, title, summary string) (string, error)
}

type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

type handlers struct {
	notes NotesUploader
	docs  TextExtractor
}

// New builds the MCP server with exactly the two worker tools registered.
func New(notes NotesUploader, docs TextExtractor) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	h := &handlers{notes: notes, docs: docs}

	s.AddTool(mcp.NewTool(ToolUploadSummary,
		mcp.WithDescription("Upload a summarized result to the Notion notes service as a new page."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the new page")),
		mcp.WithString("summary", mcp.Required(), mcp.Description("Summary text stored verbatim as the page body")),
	), h.uploadSummary)

	s.AddTool(mcp.NewTool(ToolExtractText,
		mcp.WithDescription("Read a PDF file and return its full text content."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Absolute path of the PDF file to read")),
	), h.extractText)

	return s
}

func (h *handlers) uploadSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summary, err := req.RequireString("summary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	msg, err := h.notes.UploadSummary(ctx, title, summary)
	if err != nil {
		log.Printf("%s failed: %v", ToolUploadSummary, err)
		return mcp.NewToolResultErrorFromErr("notes upload failed", err), nil
	}
	return mcp.NewToolResultText(msg), nil
}

func (h *handlers) extractText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := h.docs.ExtractText(ctx, path)
	if err != nil {
		log.Printf("%s failed for %s: %v", ToolExtractText, path, err)
		return mcp.NewToolResultErrorFromErr("read document failed", err), nil
	}
	return mcp.NewToolResultText(text), nil
}

// Serve runs the stdio message loop until in is closed or ctx ends.
// Diagnostics go to stderr; out carries protocol messages only.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(log.New(os.Stderr, "toolserver: ", log.LstdFlags))
	return stdio.Listen(ctx, in, out)
}
