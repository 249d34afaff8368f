// Package resilience provides the retry and circuit breaker primitives used
// around remote calls.
//
// Retry is deliberately bounded: callers choose MaxAttempts and a RetryIf
// predicate, and fn learns which attempt it is running so it can repair
// state before trying again.
//
//	out, err := resilience.Retry(ctx, resilience.RetryConfig{
//	    MaxAttempts: 2,
//	    RetryIf:     isExpiredURL,
//	}, func(attempt int) (Result, error) {
//	    if attempt > 1 {
//	        refreshURL()
//	    }
//	    return call()
//	})
package resilience
