// Package mcp sources tool functions from Model Context Protocol servers.
//
// A Client wraps one MCP server connection. After Connect, Functions
// discovers the server's tools and wraps each one as a tools.Function whose
// Invoke forwards the call to the server. Servers can be flagged so that
// every one of their tools requires user confirmation before execution.
//
// Authentication supports static headers and the OAuth 2.0
// client_credentials grant with proactive token refresh.
package mcp
