// Package resilience provides client-side throttling for outbound calls.
//
// RateLimiter is a token bucket: callers Wait for a token before sending.
// It delays calls but never drops or repeats them.
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 5, Burst: 10})
//	if err := rl.Wait(ctx); err != nil {
//	    return err // context cancelled while waiting
//	}
package resilience
