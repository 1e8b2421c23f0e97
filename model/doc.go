// Package model defines the completion-endpoint contract consumed by the
// orchestrator and a deterministic scripted implementation for tests.
// Provider adapters live in the subpackages model/openai and model/anthropic.
package model
