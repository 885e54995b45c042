package webhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildfeed/backend/internal/models"
)

type recordedDelivery struct {
	webhookID int
	status    int
	at        time.Time
}

type fakeStore struct {
	mu       sync.Mutex
	hooks    map[int]*models.Webhook
	recorded []recordedDelivery
}

func newFakeStore(hooks ...*models.Webhook) *fakeStore {
	s := &fakeStore{hooks: make(map[int]*models.Webhook)}
	for _, h := range hooks {
		s.hooks[h.ID] = h
	}
	return s
}

func (s *fakeStore) FindWebhook(_ context.Context, id int) (*models.Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hook, ok := s.hooks[id]
	if !ok {
		return nil, ErrWebhookNotFound
	}
	copied := *hook
	return &copied, nil
}

func (s *fakeStore) RecordDelivery(_ context.Context, id int, status int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = append(s.recorded, recordedDelivery{webhookID: id, status: status, at: at})
	return nil
}

func (s *fakeStore) deliveries() []recordedDelivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedDelivery, len(s.recorded))
	copy(out, s.recorded)
	return out
}

// flakyEndpoint kills the first failConns connections at the transport
// level, then answers every request with status.
type flakyEndpoint struct {
	mu        sync.Mutex
	requests  int
	failConns int
	status    int

	lastHeader http.Header
	lastBody   []byte
}

func (e *flakyEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.requests++
	n := e.requests
	e.mu.Unlock()

	if n <= e.failConns {
		hj, ok := w.(http.Hijacker)
		if ok {
			conn, _, _ := hj.Hijack()
			_ = conn.Close()
		}
		return
	}

	body, _ := io.ReadAll(r.Body)

	e.mu.Lock()
	e.lastHeader = r.Header.Clone()
	e.lastBody = body
	e.mu.Unlock()

	w.WriteHeader(e.status)
}

func (e *flakyEndpoint) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requests
}

func testDispatcher(store Store) *Dispatcher {
	return NewDispatcher(store, zerolog.Nop(), Config{
		Workers:   1,
		BaseDelay: time.Millisecond,
		MaxDelay:  5 * time.Millisecond,
		Timeout:   2 * time.Second,
	})
}

func TestDeliverSendsSignedRequest(t *testing.T) {
	endpoint := &flakyEndpoint{status: http.StatusOK}
	server := httptest.NewServer(endpoint)
	defer server.Close()

	hook := &models.Webhook{ID: 1, URL: server.URL, Secret: "s3cr3t", Active: true}
	store := newFakeStore(hook)
	d := testDispatcher(store)

	payload := []byte(`{"post_id":"42"}`)
	d.deliver(context.Background(), &Task{ID: "t1", WebhookID: 1, Event: "post.voted", Payload: payload})

	require.Equal(t, 1, endpoint.count())
	assert.Equal(t, "application/json", endpoint.lastHeader.Get("Content-Type"))
	assert.Equal(t, "post.voted", endpoint.lastHeader.Get("X-Webhook-Event"))
	assert.Equal(t,
		"sha256=d669da2f309332c7bfdb5a5b92645d3876e3f303da568bd235960d577d667d43",
		endpoint.lastHeader.Get("X-Webhook-Signature"))
	assert.Equal(t, payload, endpoint.lastBody)

	deliveries := store.deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, 1, deliveries[0].webhookID)
	assert.Equal(t, http.StatusOK, deliveries[0].status)
	assert.False(t, deliveries[0].at.IsZero())
}

func TestDeliverRetriesTransportFailureThenSucceeds(t *testing.T) {
	endpoint := &flakyEndpoint{status: http.StatusOK, failConns: 1}
	server := httptest.NewServer(endpoint)
	defer server.Close()

	hook := &models.Webhook{ID: 1, URL: server.URL, Secret: "s3cr3t", Active: true}
	store := newFakeStore(hook)
	d := testDispatcher(store)

	task := Task{ID: "t1", WebhookID: 1, Event: "post.voted", Payload: []byte(`{"post_id":"42"}`)}
	d.deliver(context.Background(), &task)

	// At-least-once: the endpoint saw two requests for one logical event,
	// and the recorded status reflects the attempt that completed.
	assert.Equal(t, 2, endpoint.count())
	assert.Equal(t, 2, task.Attempts)

	deliveries := store.deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, http.StatusOK, deliveries[0].status)
}

func TestDeliverDoesNotRetryNon2xx(t *testing.T) {
	endpoint := &flakyEndpoint{status: http.StatusInternalServerError}
	server := httptest.NewServer(endpoint)
	defer server.Close()

	hook := &models.Webhook{ID: 1, URL: server.URL, Secret: "s3cr3t", Active: true}
	store := newFakeStore(hook)
	d := testDispatcher(store)

	task := Task{ID: "t1", WebhookID: 1, Event: "post.created", Payload: []byte(`{}`)}
	d.deliver(context.Background(), &task)

	// A 500 is an answer, not a transport failure: recorded, not retried.
	assert.Equal(t, 1, endpoint.count())
	assert.Equal(t, 1, task.Attempts)

	deliveries := store.deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, http.StatusInternalServerError, deliveries[0].status)
}

func TestDeliverGivesUpAfterMaxAttempts(t *testing.T) {
	endpoint := &flakyEndpoint{status: http.StatusOK, failConns: 100}
	server := httptest.NewServer(endpoint)
	defer server.Close()

	hook := &models.Webhook{ID: 1, URL: server.URL, Secret: "s3cr3t", Active: true}
	store := newFakeStore(hook)
	d := testDispatcher(store)

	task := Task{ID: "t1", WebhookID: 1, Event: "post.voted", Payload: []byte(`{}`)}
	d.deliver(context.Background(), &task)

	assert.Equal(t, DefaultMaxAttempts, task.Attempts)
	assert.Empty(t, store.deliveries(), "an abandoned task must leave no telemetry")
}

func TestDeliverDiscardsInactiveWebhook(t *testing.T) {
	endpoint := &flakyEndpoint{status: http.StatusOK}
	server := httptest.NewServer(endpoint)
	defer server.Close()

	hook := &models.Webhook{ID: 1, URL: server.URL, Secret: "s3cr3t", Active: false}
	store := newFakeStore(hook)
	d := testDispatcher(store)

	d.deliver(context.Background(), &Task{ID: "t1", WebhookID: 1, Event: "post.voted", Payload: []byte(`{}`)})

	assert.Equal(t, 0, endpoint.count())
	assert.Empty(t, store.deliveries())
}

func TestDeliverDiscardsDeletedWebhook(t *testing.T) {
	endpoint := &flakyEndpoint{status: http.StatusOK}
	server := httptest.NewServer(endpoint)
	defer server.Close()

	store := newFakeStore() // no webhooks at all
	d := testDispatcher(store)

	d.deliver(context.Background(), &Task{ID: "t1", WebhookID: 99, Event: "post.voted", Payload: []byte(`{}`)})

	assert.Equal(t, 0, endpoint.count())
	assert.Empty(t, store.deliveries())
}

func TestDispatcherProcessesEnqueuedTasks(t *testing.T) {
	endpoint := &flakyEndpoint{status: http.StatusOK}
	server := httptest.NewServer(endpoint)
	defer server.Close()

	hook := &models.Webhook{ID: 1, URL: server.URL, Secret: "s3cr3t", Active: true}
	store := newFakeStore(hook)
	d := testDispatcher(store)

	d.Start()
	defer d.Stop()

	ok := d.Enqueue(Task{ID: "t1", WebhookID: 1, Event: "user.followed", Payload: []byte(`{"user_id":1,"follower_id":2}`)})
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		return len(store.deliveries()) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	store := newFakeStore()
	d := NewDispatcher(store, zerolog.Nop(), Config{Workers: 1, QueueSize: 1})
	// Not started: the queue holds one task and the second must be dropped
	// without blocking.
	assert.True(t, d.Enqueue(Task{ID: "t1", WebhookID: 1}))
	assert.False(t, d.Enqueue(Task{ID: "t2", WebhookID: 1}))
}
