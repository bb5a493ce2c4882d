package runner

import (
	"context"
	"testing"
	"time"
)

func TestPoissonArrivalNextDelayUsesSampler(t *testing.T) {
	ctrl := &poissonArrival{rate: 200, sample: func() float64 { return 1 }}
	delay := ctrl.nextDelay()
	expected := time.Second / 200
	if delay != expected {
		t.Fatalf("expected delay %s, got %s", expected, delay)
	}
}

func TestPoissonArrivalUnpacedWithoutRate(t *testing.T) {
	ctrl := &poissonArrival{sample: func() float64 { return 1 }}
	if delay := ctrl.nextDelay(); delay != 0 {
		t.Fatalf("expected no delay without a rate, got %s", delay)
	}
}

func TestPoissonArrivalWaitCancelledContext(t *testing.T) {
	ctrl := &poissonArrival{rate: 0.000001, sample: func() float64 { return 1 }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ctrl.Wait(ctx); err == nil {
		t.Fatalf("expected context error when cancelled")
	}
}

func TestNewArrivalControllerSelectsModel(t *testing.T) {
	opts := Options{ArrivalModel: ArrivalModelPoisson, RatePerSecond: 5}
	opts.normalize()
	if _, ok := newArrivalController(opts).(*poissonArrival); !ok {
		t.Error("expected poisson controller")
	}

	opts = Options{RatePerSecond: 5}
	opts.normalize()
	if _, ok := newArrivalController(opts).(*uniformArrival); !ok {
		t.Error("expected uniform controller by default")
	}
}
