// Package tools defines the server-side function abstraction for the Parley
// agentic loop. A Function couples a JSON Schema declaration (offered to the
// model) with a Go implementation invoked when the model calls it.
//
// Functions marked RequireConfirm are not executed until the user approves
// them; the engine freezes the pending call on the assistant message and
// resumes once a confirmation arrives.
//
// The Registry holds the functions available to a conversation and can be
// narrowed to the subset an assistant has enabled. Subpackages provide
// concrete sources: timeofday (built-in clock tool) and mcp (tools
// discovered from Model Context Protocol servers).
package tools
