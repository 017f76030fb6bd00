package taskqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"attachments-api/internal/models"
	"attachments-api/pkg/memorydb"

	fylogger "github.com/FyersDev/trading-logger-go"
	"github.com/google/uuid"
)

// Broker is the queue backend. memorydb.RedisClient implements it.
type Broker interface {
	LPush(ctx context.Context, key string, value interface{}) error
	BRPop(ctx context.Context, timeout time.Duration, key string) (string, error)
}

const (
	popTimeout     = 5 * time.Second
	redeliverDelay = 2 * time.Second
)

// Enqueuer submits processing tasks for at-least-once delivery. It de-dupes
// nothing: duplicate submissions for one job are expected and are absorbed
// by the orchestrator's idempotency check, not here.
type Enqueuer struct {
	broker   Broker
	queueKey string
}

func NewEnqueuer(broker Broker, queueKey string) *Enqueuer {
	return &Enqueuer{broker: broker, queueKey: queueKey}
}

// Submit pushes one task envelope and returns its delivery id.
func (e *Enqueuer) Submit(ctx context.Context, jobID int64, tenant string, forceRefresh bool) (string, error) {
	env := models.TaskEnvelope{
		DeliveryID:   uuid.NewString(),
		JobID:        jobID,
		Tenant:       tenant,
		ForceRefresh: forceRefresh,
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task envelope: %w", err)
	}

	if err := e.broker.LPush(ctx, e.queueKey, payload); err != nil {
		return "", fmt.Errorf("failed to enqueue task for job %d: %w", jobID, err)
	}

	return env.DeliveryID, nil
}

// Dispatcher pops task envelopes and POSTs them to the ingress URL. A
// delivery that fails or returns non-2xx is pushed back onto the queue
// after a fixed delay, so a task is delivered at least once but possibly
// more. Ordering across tasks is not preserved.
type Dispatcher struct {
	broker     Broker
	httpClient *http.Client
	queueKey   string
	targetURL  string
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewDispatcher(broker Broker, queueKey, targetURL string) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		broker:     broker,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		queueKey:   queueKey,
		targetURL:  targetURL,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the delivery loop
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.loop()
	fylogger.InfoLog(d.ctx, fmt.Sprintf("Task dispatcher started, delivering %s to %s", d.queueKey, d.targetURL), nil)
}

// Stop waits for any in-flight delivery to finish
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
	fylogger.InfoLog(context.Background(), "Task dispatcher stopped", nil)
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()

	for {
		payload, err := d.broker.BRPop(d.ctx, popTimeout, d.queueKey)
		if err != nil {
			if d.ctx.Err() != nil {
				return
			}
			if !memorydb.IsNil(err) {
				fylogger.ErrorLog(d.ctx, "Failed to pop task from queue", err, nil)
				time.Sleep(time.Second)
			}
			continue
		}

		d.deliver(payload)
	}
}

// deliver POSTs one envelope. The delivering request runs the whole
// processing pass, so failures here mean the pass failed and the task
// goes back on the queue for redelivery.
func (d *Dispatcher) deliver(payload string) {
	var env models.TaskEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		fylogger.ErrorLog(d.ctx, "Dropping malformed task envelope", err, nil)
		return
	}

	resp, err := d.httpClient.Post(d.targetURL, "application/json", bytes.NewReader([]byte(payload)))
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return
		}
		err = fmt.Errorf("ingress returned %d", resp.StatusCode)
	}

	fylogger.ErrorLog(d.ctx, fmt.Sprintf("Delivery %s for job %d failed, requeueing", env.DeliveryID, env.JobID), err, nil)

	select {
	case <-d.ctx.Done():
	case <-time.After(redeliverDelay):
	}

	// Requeue even on shutdown so the task survives the restart
	if err := d.broker.LPush(context.Background(), d.queueKey, payload); err != nil {
		fylogger.ErrorLog(d.ctx, fmt.Sprintf("Failed to requeue delivery %s for job %d", env.DeliveryID, env.JobID), err, nil)
	}
}
