package gateway

import "sync"

// Counters tracks attempted external calls per capability and provider.
// Tests use it to prove that cache hits issue zero provider calls.
type Counters struct {
	mu           sync.Mutex
	byCapability map[Capability]int
	byProvider   map[string]int
}

// NewCounters constructs empty call-count instrumentation.
func NewCounters() *Counters {
	return &Counters{
		byCapability: make(map[Capability]int),
		byProvider:   make(map[string]int),
	}
}

func (c *Counters) record(capability Capability, provider string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byCapability[capability]++
	c.byProvider[provider]++
}

// Calls returns the number of attempts recorded for a capability.
func (c *Counters) Calls(capability Capability) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byCapability[capability]
}

// ProviderCalls returns the number of attempts recorded for one provider.
func (c *Counters) ProviderCalls(provider string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byProvider[provider]
}

// Total returns the number of attempts recorded across all capabilities.
func (c *Counters) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.byCapability {
		total += n
	}
	return total
}

// Reset clears all recorded counts.
func (c *Counters) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byCapability = make(map[Capability]int)
	c.byProvider = make(map[string]int)
}
