// Package engine implements the chat core. The Engine implements
// transport.ChatHandler: a one-shot request is answered through the
// Gateway and the normalizer, a streaming request runs the stream
// orchestrator, which tries real upstream streaming first and falls back
// to a paced pseudo stream built from one full completion.
package engine
