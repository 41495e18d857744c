package consumption

import "time"

// Observer receives pipeline outcomes; the app wires it to prometheus.
type Observer interface {
	QueryCompleted(elapsed time.Duration, stats PostProcessStats, inMemorySort bool)
	QueryFailed(stage string)
}

type noopObserver struct{}

func (noopObserver) QueryCompleted(time.Duration, PostProcessStats, bool) {}

func (noopObserver) QueryFailed(string) {}
