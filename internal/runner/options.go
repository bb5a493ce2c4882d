package runner

import (
	"context"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// Requester abstracts executing a single trial.
// Implementations should return an error for failed trials.
type Requester interface {
	Do(ctx context.Context) error
}

// RequesterFunc adapts a function to a Requester.
type RequesterFunc func(ctx context.Context) error

func (f RequesterFunc) Do(ctx context.Context) error { return f(ctx) }

// ArrivalModel selects how trial start times are spaced.
type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

// Options configure the Runner.
type Options struct {
	Concurrency    int                             // number of worker goroutines
	TotalRequests  int                             // trials to execute (0 means unlimited until duration/end)
	Duration       time.Duration                   // overall time limit (0 means no duration cap)
	RatePerSecond  float64                         // trial pacing (0 means unlimited)
	ArrivalModel   ArrivalModel                    // uniform or poisson spacing
	RandomSeed     int64                           // poisson sampler seed (0 picks one from the clock)
	PoissonSampler func() float64                  // optional injection for tests
	Requester      Requester                       // trial executor (required)
	LimiterFactory func(rps float64) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.TotalRequests < 0 {
		o.TotalRequests = 0
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.ArrivalModel == "" {
		o.ArrivalModel = ArrivalModelUniform
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = time.Now().UnixNano()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps float64) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst of one second's worth smooths pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), int(math.Max(1, math.Ceil(rps))))
		}
	}
}
