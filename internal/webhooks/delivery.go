package webhooks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxAttempts bounds the sequential attempts per task. Only
	// transport-level failures consume retries; any HTTP response,
	// including a non-2xx one, ends the task.
	DefaultMaxAttempts = 5

	DefaultWorkers   = 4
	DefaultQueueSize = 256
	DefaultTimeout   = 10 * time.Second
	DefaultBaseDelay = 500 * time.Millisecond
	DefaultMaxDelay  = 30 * time.Second
)

// Task is one pending delivery: a single event for a single webhook. Tasks
// live only on the queue; their outcome is reflected in the webhook's
// last_triggered_at/last_status telemetry.
type Task struct {
	ID        string
	WebhookID int
	Event     string
	Payload   []byte
	Attempts  int
}

// Config tunes the dispatcher. Zero values fall back to the defaults above.
type Config struct {
	Workers     int
	QueueSize   int
	Timeout     time.Duration // per attempt, not per task
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Dispatcher runs the asynchronous delivery worker pool. Tasks are
// independent and may be delivered concurrently; attempts for one task are
// strictly sequential. Delivery is at-least-once.
type Dispatcher struct {
	store  Store
	client *http.Client
	logger zerolog.Logger
	cfg    Config

	tasks   chan Task
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewDispatcher(store Store, logger zerolog.Logger, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}

	return &Dispatcher{
		store:  store,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
		cfg:    cfg,
		tasks:  make(chan Task, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}
	d.running = true

	d.logger.Info().Int("workers", d.cfg.Workers).Msg("starting webhook delivery workers")
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Stop signals the workers and waits for in-flight deliveries to finish.
// Queued tasks that no worker has picked up are dropped.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}
	d.running = false

	close(d.stopCh)
	d.wg.Wait()
	d.logger.Info().Msg("webhook delivery workers stopped")
}

// Enqueue submits a task without blocking. When the queue is full the task
// is dropped: the request path must never wait on third-party I/O.
func (d *Dispatcher) Enqueue(task Task) bool {
	select {
	case d.tasks <- task:
		return true
	default:
		d.logger.Warn().
			Str("task_id", task.ID).
			Int("webhook_id", task.WebhookID).
			Str("event", task.Event).
			Msg("delivery queue full, dropping task")
		return false
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopCh:
			return
		case task := <-d.tasks:
			d.deliver(context.Background(), &task)
		}
	}
}

// deliver runs one task to completion: sign, send, retry on transport
// failure, record the outcome. Errors never propagate beyond this method.
func (d *Dispatcher) deliver(ctx context.Context, task *Task) {
	hook, err := d.store.FindWebhook(ctx, task.WebhookID)
	if err != nil {
		if errors.Is(err, ErrWebhookNotFound) {
			d.logger.Debug().Str("task_id", task.ID).Int("webhook_id", task.WebhookID).
				Msg("webhook deleted since enqueue, discarding task")
		} else {
			d.logger.Error().Err(err).Str("task_id", task.ID).Msg("loading webhook failed")
		}
		return
	}
	if !hook.Active {
		d.logger.Debug().Str("task_id", task.ID).Int("webhook_id", hook.ID).
			Msg("webhook deactivated since enqueue, discarding task")
		return
	}

	signature := Sign(hook.Secret, task.Payload)

	var status int
	err = retry.Do(
		func() error {
			task.Attempts++

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(task.Payload))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Webhook-Signature", signature)
			req.Header.Set("X-Webhook-Event", task.Event)

			resp, err := d.client.Do(req)
			if err != nil {
				return &DeliveryTimeoutError{URL: hook.URL, Err: err}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()

			// Any response ends the task. A non-2xx status is recorded
			// below but never retried.
			status = resp.StatusCode
			return nil
		},
		retry.Attempts(uint(d.cfg.MaxAttempts)),
		retry.Delay(d.cfg.BaseDelay),
		retry.MaxDelay(d.cfg.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			d.logger.Warn().Err(err).
				Str("task_id", task.ID).
				Int("webhook_id", hook.ID).
				Uint("attempt", n+1).
				Msg("delivery attempt failed, retrying")
		}),
	)
	if err != nil {
		// Retry budget exhausted. The failure is dropped beyond this log.
		d.logger.Error().Err(err).
			Str("task_id", task.ID).
			Int("webhook_id", hook.ID).
			Str("event", task.Event).
			Int("attempts", task.Attempts).
			Msg("delivery abandoned")
		return
	}

	if err := d.store.RecordDelivery(ctx, hook.ID, status, time.Now().UTC()); err != nil {
		d.logger.Error().Err(err).Int("webhook_id", hook.ID).Msg("recording delivery outcome failed")
	}

	if status < 200 || status >= 300 {
		derr := &DeliveryError{URL: hook.URL, Status: status}
		d.logger.Warn().Err(derr).
			Str("task_id", task.ID).
			Int("webhook_id", hook.ID).
			Str("event", task.Event).
			Msg("endpoint rejected delivery")
		return
	}

	d.logger.Info().
		Str("task_id", task.ID).
		Int("webhook_id", hook.ID).
		Str("event", task.Event).
		Int("status", status).
		Int("attempts", task.Attempts).
		Msg("delivered")
}
