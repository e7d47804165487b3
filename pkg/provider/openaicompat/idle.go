package openaicompat

import (
	"io"
	"time"
)

// idleWatchdog fires once when a wait on the upstream outlasts the timeout.
// It is armed while waiting for response headers and during each body read,
// never while the consumer is still handling the previous chunk. A nil
// watchdog (timeout <= 0) never fires.
type idleWatchdog struct {
	timeout time.Duration
	timer   *time.Timer
}

func newIdleWatchdog(timeout time.Duration, fire func()) *idleWatchdog {
	if timeout <= 0 {
		return nil
	}
	return &idleWatchdog{timeout: timeout, timer: time.AfterFunc(timeout, fire)}
}

// reader wraps r so that every read is bounded by the watchdog.
func (w *idleWatchdog) reader(r io.Reader) io.Reader {
	if w == nil {
		return r
	}
	return &idleReader{r: r, w: w}
}

func (w *idleWatchdog) stop() {
	if w != nil {
		w.timer.Stop()
	}
}

type idleReader struct {
	r io.Reader
	w *idleWatchdog
}

func (r *idleReader) Read(p []byte) (int, error) {
	r.w.timer.Reset(r.w.timeout)
	n, err := r.r.Read(p)
	r.w.timer.Stop()
	return n, err
}
