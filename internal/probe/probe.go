package probe

import (
	"context"
	"net/http"
	"time"
)

// Result classifies one probe run.
type Result int

const (
	Healthy Result = iota
	Unhealthy
	TimedOut
)

func (r Result) String() string {
	switch r {
	case Healthy:
		return "healthy"
	case Unhealthy:
		return "unhealthy"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Outcome carries the result plus how long the probe ran.
type Outcome struct {
	Result  Result
	Elapsed time.Duration
}

// Prober polls an HTTP endpoint until it responds or a deadline elapses.
// Connection errors are the expected steady state while a service boots
// and are simply retried; any response at all, including non-2xx, counts
// as reachable. The zero value is usable.
type Prober struct {
	Client   *http.Client  // defaults to a client with a per-attempt timeout
	Interval time.Duration // polling cadence, default 1s
}

// Probe polls url once per interval. It returns Healthy on the first
// response, TimedOut once elapsed time reaches timeout without one, and
// Unhealthy if ctx is cancelled first.
func (p *Prober) Probe(ctx context.Context, url string, timeout time.Duration) Outcome {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: interval}
	}

	start := time.Now()
	deadline := start.Add(timeout)
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Outcome{Result: Unhealthy, Elapsed: time.Since(start)}
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			return Outcome{Result: Healthy, Elapsed: time.Since(start)}
		}
		if ctx.Err() != nil {
			return Outcome{Result: Unhealthy, Elapsed: time.Since(start)}
		}
		if !time.Now().Before(deadline) {
			return Outcome{Result: TimedOut, Elapsed: time.Since(start)}
		}
		select {
		case <-ctx.Done():
			return Outcome{Result: Unhealthy, Elapsed: time.Since(start)}
		case <-time.After(interval):
		}
	}
}
