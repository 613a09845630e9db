// Package google_tools provides MCP tools for the Google credential.
//
// The server never runs the interactive login itself: a browser cannot be
// opened on behalf of a remote MCP client. google_auth_status reports whether
// the stored credential is usable and, if not, tells the user to run
// `coverletter login` on the machine that hosts the server.
package google_tools
