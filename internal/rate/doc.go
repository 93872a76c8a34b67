// Package rate implements the fixed-window login throttle. Counters are
// process-scoped state owned by the [Limiter] and injected into the
// engine, never ambient; increments are mutex-guarded so concurrent login
// attempts cannot lose updates.
package rate
