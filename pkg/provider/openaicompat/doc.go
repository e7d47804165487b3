// Package openaicompat provides a client for any OpenAI-compatible Chat
// Completions backend. It handles request serialization, lenient response
// decoding, SSE chunk streaming and error mapping.
//
// Provider adapters (e.g., databricks) embed the Client from this package
// and delegate their Complete/Stream calls to it.
package openaicompat
