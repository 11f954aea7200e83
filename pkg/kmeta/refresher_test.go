package kmeta

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/twmb/franz-go/pkg/kmsg"
)

// The refresher tests run against the real clock with tiny windows; they
// assert on future resolution rather than on timing.

func TestRefresherServesRequests(t *testing.T) {
	cl := NewCluster(RetryBackoff(time.Millisecond), MetadataMaxAge(time.Hour))

	var fetches int32
	r := NewRefresher(cl, func(context.Context) (*kmsg.MetadataResponse, error) {
		atomic.AddInt32(&fetches, 1)
		return resp(twoBrokers(), respTopic("orders", 0, map[int32]int32{0: 1})), nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fut := cl.RequestUpdate()
	go r.Run(ctx)

	got, err := fut.Wait(ctx)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if got != cl {
		t.Fatal("future resolved with a different cluster")
	}
	if _, ok := cl.PartitionsForTopic("orders"); !ok {
		t.Error("refresh did not populate the cache")
	}

	// A later trigger runs another fetch and resolves its own future.
	fut2 := cl.RequestUpdate()
	r.TriggerNow()
	if _, err := fut2.Wait(ctx); err != nil {
		t.Fatalf("triggered refresh failed: %v", err)
	}
	if n := atomic.LoadInt32(&fetches); n < 2 {
		t.Errorf("got %d fetches; want at least 2", n)
	}
}

func TestRefresherRoutesFailures(t *testing.T) {
	cl := NewCluster(RetryBackoff(time.Millisecond), MetadataMaxAge(time.Hour))

	boom := errors.New("transport broke")
	r := NewRefresher(cl, func(context.Context) (*kmsg.MetadataResponse, error) {
		return nil, boom
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fut := cl.RequestUpdate()
	go r.Run(ctx)

	if _, err := fut.Wait(ctx); !errors.Is(err, boom) {
		t.Fatalf("got %v; want the fetch error", err)
	}
	if v := cl.Version(); v != 0 {
		t.Errorf("got version %d after failures only; want 0", v)
	}
}

func TestRefresherStopsWithContext(t *testing.T) {
	cl := NewCluster(RetryBackoff(time.Millisecond), MetadataMaxAge(time.Hour))
	r := NewRefresher(cl, func(context.Context) (*kmsg.MetadataResponse, error) {
		return resp(twoBrokers()), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		r.Run(ctx)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop once the context was done")
	}
}

func TestTriggerNowCoalesces(t *testing.T) {
	cl := NewCluster()
	r := NewRefresher(cl, func(context.Context) (*kmsg.MetadataResponse, error) {
		return resp(twoBrokers()), nil
	})

	fut := cl.RequestUpdate()
	r.TriggerNow()
	r.TriggerNow()
	r.TriggerNow()

	if len(r.nowCh) != 1 {
		t.Errorf("got %d pending wakes; want 1", len(r.nowCh))
	}
	if cl.RequestUpdate() != fut {
		t.Error("triggers before resolution must share the outstanding future")
	}
}
