// Package core provides the foundational domain types and contracts shared by
// every other package of the agent office:
//
//   - Message (the immutable unit of the shared office channel)
//   - MessageLog (append-only store contract, implemented in messagelog)
//   - Content / Part (role tagged model input and output)
//   - Decision (the outcome of one step of an agent's decision loop)
//   - ToolContext / ToolResult (scoped tool execution and its normalized outcome)
//   - StepLimiter (bounded decision loops)
//   - the error taxonomy used across the module
//
// Concrete implementations (storage, model adapters, orchestration) live in
// their own packages and depend on core, never the other way round.
package core
