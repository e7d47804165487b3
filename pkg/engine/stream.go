package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"github.com/rhuss/omotenashi/pkg/api"
	"github.com/rhuss/omotenashi/pkg/debug"
	"github.com/rhuss/omotenashi/pkg/normalize"
	"github.com/rhuss/omotenashi/pkg/observability"
	"github.com/rhuss/omotenashi/pkg/sanitize"
	"github.com/rhuss/omotenashi/pkg/transport"
)

// runState tracks the progress of one streaming run.
type runState int

const (
	stateIdle runState = iota
	stateStarted
	stateRealStreaming
	stateRealEmpty
	stateFallbackStreaming
	stateFallbackFailed
	stateDone
)

func (s runState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateStarted:
		return "started"
	case stateRealStreaming:
		return "real_streaming"
	case stateRealEmpty:
		return "real_empty"
	case stateFallbackStreaming:
		return "fallback_streaming"
	case stateFallbackFailed:
		return "fallback_failed"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// run holds the per-request state of the streaming orchestrator. Every run
// emits exactly one end event, whatever path it takes.
type run struct {
	ctx   context.Context
	w     transport.ResponseWriter
	state runState
	err   error
	ended bool
}

func (r *run) transition(to runState) {
	debug.Log("engine", "stream state",
		"request_id", transport.RequestIDFromContext(r.ctx),
		"from", r.state.String(),
		"to", to.String(),
	)
	r.state = to
}

// emit writes one event and keeps the first write failure. After a write
// failure further events are dropped, except that end is still attempted.
func (r *run) emit(ev api.StreamEvent) {
	if r.ended {
		return
	}
	if r.err != nil && ev.Type != api.EventEnd {
		return
	}
	if err := r.w.WriteEvent(r.ctx, ev); err != nil && r.err == nil {
		r.err = err
	}
	if ev.Type == api.EventEnd {
		r.ended = true
	}
}

func (r *run) finish() error {
	r.emit(api.EndEvent())
	r.transition(stateDone)
	return r.err
}

// Stream answers text as a sequence of events: start, then tokens or a
// single error, then end.
//
// It first streams the endpoint's deltas as they arrive. When the stream
// cannot be opened, fails, or finishes without any text, it falls back to
// a one-shot completion and replays the sanitized reply one grapheme at a
// time. Blank text produces only end. A cancelled ctx stops output and
// skips the fallback, but end is still written.
func (e *Engine) Stream(ctx context.Context, text string, w transport.ResponseWriter) error {
	r := &run{ctx: ctx, w: w}

	text = strings.TrimSpace(text)
	if text == "" {
		return r.finish()
	}

	if !e.Configured() {
		r.emit(api.ErrorEvent(api.ReplyNotConfigured))
		return r.finish()
	}

	r.emit(api.StartEvent())
	r.transition(stateStarted)

	reason, ok := e.streamUpstream(r, text)
	if ok || r.err != nil || ctx.Err() != nil {
		return r.finish()
	}

	observability.StreamFallbacksTotal.WithLabelValues(reason).Inc()
	slog.Warn("upstream stream produced no reply, falling back",
		"request_id", transport.RequestIDFromContext(ctx),
		"reason", reason,
	)

	e.streamFallback(r, text)
	return r.finish()
}

// streamUpstream relays upstream deltas as tokens. It returns true when
// the stream finished cleanly after at least one token; otherwise it
// returns the fallback reason.
func (e *Engine) streamUpstream(r *run, text string) (string, bool) {
	streamCtx, cancel := context.WithCancel(r.ctx)
	defer cancel()

	events, err := e.gateway.Stream(streamCtx, text)
	if err != nil {
		slog.Warn("upstream stream failed to open",
			"request_id", transport.RequestIDFromContext(r.ctx),
			"error", err.Error(),
		)
		return observability.FallbackReasonError, false
	}

	produced := false
	for ev := range events {
		if ev.Err != nil {
			slog.Warn("upstream stream failed",
				"request_id", transport.RequestIDFromContext(r.ctx),
				"error", ev.Err.Error(),
				"tokens_sent", produced,
			)
			return observability.FallbackReasonError, false
		}
		delta, ok := normalize.Delta(ev.Chunk)
		if !ok {
			if ev.Chunk != nil {
				debug.Trace("engine", "chunk without text", "chunk", debug.Truncate(string(ev.Chunk.Raw), 500))
			}
			continue
		}
		if !produced {
			r.transition(stateRealStreaming)
			produced = true
		}
		r.emit(api.TokenEvent(delta))
		observability.StreamTokensTotal.WithLabelValues(observability.SourceUpstream).Inc()
		if r.err != nil {
			return "", false
		}
	}

	if r.ctx.Err() != nil {
		return "", false
	}
	if !produced {
		r.transition(stateRealEmpty)
		return observability.FallbackReasonEmpty, false
	}
	return "", true
}

// streamFallback replays a one-shot completion as a pseudo-stream.
func (e *Engine) streamFallback(r *run, text string) {
	res, err := e.gateway.Complete(r.ctx, text)
	if r.ctx.Err() != nil {
		return
	}
	if err != nil {
		r.transition(stateFallbackFailed)
		slog.Error("fallback completion failed",
			"request_id", transport.RequestIDFromContext(r.ctx),
			"error", err.Error(),
		)
		r.emit(api.ErrorEvent(api.ReplyConnectionUnstable))
		return
	}

	reply, ok := normalize.Reply(res)
	if !ok {
		r.transition(stateFallbackFailed)
		slog.Warn("reply not found in fallback result",
			"request_id", transport.RequestIDFromContext(r.ctx),
			"payload", debug.Truncate(rawPayload(res), 2000),
		)
		debug.Raw("engine", rawPayload(res))
		r.emit(api.ErrorEvent(api.ReplyGenerationFailed))
		return
	}

	r.transition(stateFallbackStreaming)
	e.replay(r, sanitize.Clean(reply))
}

// replay emits s one grapheme cluster per token, pacing tokens by the
// configured fallback delay.
func (e *Engine) replay(r *run, s string) {
	delay := e.cfg.fallbackDelay()
	var tick <-chan time.Time
	if delay > 0 {
		ticker := time.NewTicker(delay)
		defer ticker.Stop()
		tick = ticker.C
	}

	first := true
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		if !first && tick != nil {
			select {
			case <-r.ctx.Done():
				return
			case <-tick:
			}
		}
		if r.ctx.Err() != nil {
			return
		}
		first = false
		r.emit(api.TokenEvent(gr.Str()))
		observability.StreamTokensTotal.WithLabelValues(observability.SourceFallback).Inc()
		if r.err != nil {
			return
		}
	}
}
