// Package runner executes trials with bounded concurrency and paced arrivals.
//
// A [Runner] hands out one permit per trial from a single scheduler goroutine,
// so pacing never overshoots when several workers are idle:
//
//	r := runner.New(runner.Options{
//		Concurrency:   1,
//		TotalRequests: 10,
//		RatePerSecond: 2,
//		Requester:     trial,
//	})
//	result := r.Run(ctx)
//
// Arrivals are spaced uniformly through a rate.Limiter, or exponentially with
// [ArrivalModelPoisson]. [WithRetry] and [WithLogging] wrap a [Requester].
package runner
