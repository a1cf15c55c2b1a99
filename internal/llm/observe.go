package llm

import (
	"log/slog"
	"time"
)

// Observer receives one latency/outcome observation per external model call,
// including fallback invocations. The collector behind it is out of scope
// here; the default just logs.
type Observer interface {
	Record(provider, model string, latency time.Duration, ok bool)
}

type slogObserver struct{}

func (slogObserver) Record(provider, model string, latency time.Duration, ok bool) {
	slog.Info("llm call",
		"provider", provider,
		"model", model,
		"latency_ms", latency.Milliseconds(),
		"ok", ok,
	)
}

// NewLogObserver returns an Observer that writes observations to slog.
func NewLogObserver() Observer { return slogObserver{} }
