// Package gateway fronts every external service call with an ordered
// provider-fallback chain and a shared retry policy.
//
// Each capability (reasoning, stock images, voice synthesis, image
// generation) is backed by a configured list of providers. A request tries
// provider one; recoverable failures (timeouts, quota, transient 5xx) advance
// to the next provider after the per-attempt retry budget is spent, while
// fatal failures (bad credentials, malformed requests) abort immediately.
// Exhausting a chain surfaces services.ProviderError naming the capability
// and every provider attempted.
//
// The gateway also counts attempted calls per capability so cache-correctness
// tests can assert that warm runs issue zero external calls.
package gateway
