package pipeline

import "sync"

// inflight is one running computation other callers can wait on.
type inflight struct {
	done  chan struct{}
	value any
	err   error
}

// flightGroup collapses concurrent executions of the same key into one. It is
// the in-process half of the concurrency discipline; the artifact store's
// flock leases cover separate processes.
type flightGroup struct {
	mu    sync.Mutex
	calls map[string]*inflight
}

func newFlightGroup() *flightGroup {
	return &flightGroup{calls: make(map[string]*inflight)}
}

// do runs fn once per key: the first caller executes, later callers block
// until the first finishes and receive its result. shared reports whether the
// caller waited on someone else's execution.
func (g *flightGroup) do(key string, fn func() (any, error)) (value any, shared bool, err error) {
	g.mu.Lock()
	if call, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-call.done
		return call.value, true, call.err
	}

	call := &inflight{done: make(chan struct{})}
	g.calls[key] = call
	g.mu.Unlock()

	call.value, call.err = fn()
	close(call.done)

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()

	return call.value, false, call.err
}
