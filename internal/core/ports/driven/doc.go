// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - KVStore: Hash and set storage behind the entry store (sqlite, redis, memory)
//   - LLMRouter: Resolves model identifiers to LLMService instances
//   - PromptStore: Prompt templates for each pipeline stage
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SchedulerStore: Persists background task state. Without it, state lives in memory.
//   - TextExtractor: Converts uploaded bytes to text. Without one, only UTF-8 uploads are accepted.
//   - AIConfigValidator: Pings providers when settings change.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
