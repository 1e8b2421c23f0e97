// Package core defines the shared data model of the orchestration loop:
// transcript messages, tool call requests, normalized tool results and the
// per-request conversation state that ties them together. It has no external
// dependencies and is imported by every other package in the module.
package core
