package api

// StreamEventType identifies the type of a streaming event.
type StreamEventType string

const (
	EventStart StreamEventType = "start"
	EventToken StreamEventType = "token"
	EventError StreamEventType = "error"
	EventEnd   StreamEventType = "end"
)

// StreamEvent is one unit of the server-to-client push protocol.
//
// A stream carries at most one start, any number of tokens, an optional
// error and exactly one end.
type StreamEvent struct {
	Type StreamEventType `json:"type"`
	T    string          `json:"t,omitempty"`
	Msg  string          `json:"msg,omitempty"`
}

// StartEvent returns the event that opens a stream.
func StartEvent() StreamEvent {
	return StreamEvent{Type: EventStart}
}

// TokenEvent returns an incremental text fragment event.
func TokenEvent(t string) StreamEvent {
	return StreamEvent{Type: EventToken, T: t}
}

// ErrorEvent returns an event carrying a user-facing failure message.
func ErrorEvent(msg string) StreamEvent {
	return StreamEvent{Type: EventError, Msg: msg}
}

// EndEvent returns the terminal event.
func EndEvent() StreamEvent {
	return StreamEvent{Type: EventEnd}
}

// IsTerminal reports whether the event closes the stream.
func (e StreamEvent) IsTerminal() bool {
	return e.Type == EventEnd
}
