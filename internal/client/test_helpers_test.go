package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	internalhttp "github.com/fivetwenty-io/arium-client/internal/http"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

const testTenant = "workspace1"

// Test static errors.
var (
	ErrTestSomeError = errors.New("some error")
)

// recordingSleeper records requested delays instead of sleeping.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.delays = append(s.delays, d)

	return ctx.Err()
}

func (s *recordingSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]time.Duration{}, s.delays...)
}

type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

// recordingLogger keeps every log call.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.add("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  { l.add("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]interface{})  { l.add("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.add("error", msg, fields) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0

	for _, entry := range l.entries {
		if entry.level == level {
			n++
		}
	}

	return n
}

// recordingPublisher collects workflow events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []arium.WorkflowEvent
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(ctx context.Context, event arium.WorkflowEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true

	return nil
}

// testEnv bundles a fake platform and the clients pointed at it.
type testEnv struct {
	server    *httptest.Server
	http      *internalhttp.Client
	fs        afero.Fs
	sleeper   *recordingSleeper
	logger    *recordingLogger
	publisher *recordingPublisher
	opts      *Options
}

func newTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sleeper := &recordingSleeper{}
	logger := &recordingLogger{}
	publisher := &recordingPublisher{}
	fs := afero.NewMemMapFs()

	opts := DefaultOptions()
	opts.Logger = logger
	opts.Sleep = sleeper.Sleep
	opts.Retry.Sleep = sleeper.Sleep
	opts.Fs = fs
	opts.Events = publisher

	return &testEnv{
		server:    server,
		http:      internalhttp.NewClient(server.URL, nil, internalhttp.WithTenant(testTenant)),
		fs:        fs,
		sleeper:   sleeper,
		logger:    logger,
		publisher: publisher,
		opts:      opts,
	}
}

func (e *testEnv) assets(collection string) *AssetsClient {
	return NewAssetsClient(e.http, collection, e.opts)
}

func (e *testEnv) calculations() *CalculationsClient {
	return NewCalculationsClient(e.http, e.opts)
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func readBody(t *testing.T, r *http.Request) string {
	t.Helper()

	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}

	return string(data)
}
