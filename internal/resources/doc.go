// Package resources registers read-only MCP resources describing the cover
// letter setup: the template with its placeholder tokens and the candidate
// profile the letter body is written from.
package resources
