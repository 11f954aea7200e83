package kmeta

import (
	"context"
	"time"

	"github.com/twmb/franz-go/pkg/kmsg"
)

// FetchFn performs one metadata request/response exchange. The Refresher owns
// no connections; the caller supplies whatever actually talks to the cluster.
type FetchFn func(context.Context) (*kmsg.MetadataResponse, error)

// Refresher drives a Cluster: it sleeps on TTL, wakes for explicit triggers,
// performs the fetch, and routes the outcome into Update or FailedUpdate. It
// is the one place in this package that blocks.
type Refresher struct {
	cl    *Cluster
	fetch FetchFn

	nowCh chan struct{}
}

// NewRefresher pairs a cluster cache with the fetch function that refreshes
// it.
func NewRefresher(cl *Cluster, fetch FetchFn) *Refresher {
	return &Refresher{
		cl:    cl,
		fetch: fetch,
		nowCh: make(chan struct{}, 1),
	}
}

// TriggerNow flags metadata for update and wakes the running loop. Triggers
// that arrive while one is already pending coalesce into a single wake.
func (r *Refresher) TriggerNow() {
	r.cl.RequestUpdate()
	select {
	case r.nowCh <- struct{}{}:
	default:
	}
}

// Run refreshes metadata whenever the cluster's TTL lapses or TriggerNow is
// called, until ctx is done. TTL already folds in the retry backoff, so a
// trigger arriving right after an attempt waits out the remainder of the
// backoff window rather than firing immediately.
func (r *Refresher) Run(ctx context.Context) {
	for {
		if wait := r.cl.TTL(); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			case <-r.nowCh:
				timer.Stop()
			}
		}
		if r.cl.TTL() > 0 {
			continue // woken early; still inside the backoff window
		}

		// Drain any trigger that piled on while we were waiting; this
		// refresh serves it.
		select {
		case <-r.nowCh:
		default:
		}

		resp, err := r.fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			r.cl.FailedUpdate(err)
			continue
		}
		// A single-topic error fails the attempt inside Update; either
		// way the next TTL folds in the backoff.
		r.cl.Update(resp)
	}
}
