// Package model defines the provider-agnostic abstractions for interacting
// with language models from an office agent.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool declarations (ToolDefinition) and tool calls (core.FunctionCallPart)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI and OpenAI compatible servers such as Ollama, Anthropic,
// Gemini) implement Model in sub-packages so agents stay decoupled from
// vendor SDKs.
package model
