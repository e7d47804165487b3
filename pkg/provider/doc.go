// Package provider defines the protocol-agnostic contract for the hosted
// model endpoint. Adapters (e.g., databricks) handle their own wire protocol
// internally and hand the engine leniently decoded results: a
// CompletionResult for one-shot calls and a channel of Chunk values for
// streaming calls.
package provider
