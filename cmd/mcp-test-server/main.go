// Command mcp-test-server runs a small MCP server for exercising the
// parley MCP client end to end. It offers "get_time", "echo", and
// "word_count" tools over streamable HTTP.
//
// Configuration:
//
//	MCP_PORT - Listen port (default: 9091)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	port := os.Getenv("MCP_PORT")
	if port == "" {
		port = "9091"
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "parley-test-mcp", Version: "v1.0.0"},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_time",
		Description: "Returns the current UTC time",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, struct{}, error) {
		return textResult(fmt.Sprintf("Current time: %s", time.Now().UTC().Format(time.RFC3339))), struct{}{}, nil
	})

	type EchoInput struct {
		Message string `json:"message" jsonschema_description:"The message to echo back"`
	}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "echo",
		Description: "Echoes the provided message back",
	}, func(_ context.Context, _ *mcp.CallToolRequest, input EchoInput) (*mcp.CallToolResult, struct{}, error) {
		return textResult("Echo: " + input.Message), struct{}{}, nil
	})

	type WordCountInput struct {
		Text string `json:"text" jsonschema_description:"The text to count words in"`
	}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "word_count",
		Description: "Counts the words in the provided text",
	}, func(_ context.Context, _ *mcp.CallToolRequest, input WordCountInput) (*mcp.CallToolResult, struct{}, error) {
		return textResult(fmt.Sprintf("%d words", len(strings.Fields(input.Text)))), struct{}{}, nil
	})

	// Serve via streamable HTTP on /mcp.
	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)

	httpMux := http.NewServeMux()
	httpMux.Handle("/mcp", handler)
	httpMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	slog.Info("MCP test server starting", "port", port)
	if err := http.ListenAndServe(":"+port, httpMux); err != nil {
		slog.Error("MCP test server failed", "error", err)
		os.Exit(1)
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
