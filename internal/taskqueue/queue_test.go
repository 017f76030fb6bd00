package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"attachments-api/internal/models"

	"github.com/redis/go-redis/v9"
)

// fakeBroker is a channel-free in-memory stand-in for the Redis list.
type fakeBroker struct {
	mu    sync.Mutex
	items []string
}

func (b *fakeBroker) LPush(ctx context.Context, key string, value interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		b.items = append([]string{string(v)}, b.items...)
	case string:
		b.items = append([]string{v}, b.items...)
	default:
		return fmt.Errorf("unsupported payload type %T", value)
	}
	return nil
}

func (b *fakeBroker) BRPop(ctx context.Context, timeout time.Duration, key string) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		b.mu.Lock()
		if n := len(b.items); n > 0 {
			item := b.items[n-1]
			b.items = b.items[:n-1]
			b.mu.Unlock()
			return item, nil
		}
		b.mu.Unlock()
		if time.Now().After(deadline) {
			return "", redis.Nil
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (b *fakeBroker) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func TestEnqueuerSubmit(t *testing.T) {
	broker := &fakeBroker{}
	enq := NewEnqueuer(broker, "tasks")

	id1, err := enq.Submit(context.Background(), 42, "bravogolf", true)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id2, err := enq.Submit(context.Background(), 42, "bravogolf", true)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id1 == "" || id1 == id2 {
		t.Fatalf("expected distinct non-empty delivery ids, got %q and %q", id1, id2)
	}
	if broker.len() != 2 {
		t.Fatalf("expected 2 queued tasks, got %d", broker.len())
	}

	var env models.TaskEnvelope
	payload, _ := broker.BRPop(context.Background(), time.Second, "tasks")
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.JobID != 42 || env.Tenant != "bravogolf" || !env.ForceRefresh {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestDispatcherDelivers(t *testing.T) {
	delivered := make(chan models.TaskEnvelope, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env models.TaskEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			t.Errorf("decode delivery: %v", err)
		}
		delivered <- env
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	broker := &fakeBroker{}
	enq := NewEnqueuer(broker, "tasks")
	if _, err := enq.Submit(context.Background(), 7, "alpha", false); err != nil {
		t.Fatalf("submit: %v", err)
	}

	d := NewDispatcher(broker, "tasks", srv.URL)
	d.Start()
	defer d.Stop()

	select {
	case env := <-delivered:
		if env.JobID != 7 || env.Tenant != "alpha" {
			t.Fatalf("unexpected envelope: %+v", env)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("task was never delivered")
	}
}

func TestDispatcherRequeuesOnFailure(t *testing.T) {
	var calls int32
	delivered := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		delivered <- struct{}{}
	}))
	defer srv.Close()

	broker := &fakeBroker{}
	enq := NewEnqueuer(broker, "tasks")
	if _, err := enq.Submit(context.Background(), 9, "alpha", false); err != nil {
		t.Fatalf("submit: %v", err)
	}

	d := NewDispatcher(broker, "tasks", srv.URL)
	d.Start()
	defer d.Stop()

	select {
	case <-delivered:
		if got := atomic.LoadInt32(&calls); got < 2 {
			t.Fatalf("expected at least 2 delivery attempts, got %d", got)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("task was never redelivered after failure")
	}
}
