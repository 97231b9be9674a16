package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ava-labs/mqlibrary/pkg/keywords"
	"github.com/ava-labs/mqlibrary/pkg/mq"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingPublisher struct {
	mu      sync.Mutex
	events  []Event
	err     error
	block   chan struct{}
	closed  int
	closeMu sync.Mutex
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close(context.Context) {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	p.closed++
}

func (p *recordingPublisher) published() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

func TestNewEvent(t *testing.T) {
	ev := NewEvent(keywords.Call{
		Keyword:  keywords.KeywordPut,
		Alias:    "default",
		Duration: 1500 * time.Microsecond,
	}, "agent-1", fixedNow)

	require.Equal(t, Event{
		Time:       fixedNow.UTC(),
		Instance:   "agent-1",
		Keyword:    keywords.KeywordPut,
		Alias:      "default",
		Status:     StatusPass,
		DurationMS: 1,
	}, ev)
	require.Equal(t, []byte("default"), ev.Key())
}

func TestNewEvent_Failure(t *testing.T) {
	err := &mq.QueueError{Op: "put", Queue: "Q", Message: "queue is full", Err: mq.NewError("MQPUT", mq.RCQFull)}
	ev := NewEvent(keywords.Call{Keyword: keywords.KeywordPut, Err: err}, "", fixedNow)

	require.Equal(t, StatusFail, ev.Status)
	require.Equal(t, err.Error(), ev.Error)
	require.Equal(t, int32(2053), ev.Reason)
	require.Nil(t, ev.Key())

	ev = NewEvent(keywords.Call{Keyword: keywords.KeywordGet, Err: errors.New("plain")}, "", fixedNow)
	require.Zero(t, ev.Reason)
}

func TestEvent_Marshal(t *testing.T) {
	ev := NewEvent(keywords.Call{Keyword: keywords.KeywordClear, Alias: "a", Duration: 2 * time.Second}, "", fixedNow)

	data, err := ev.Marshal()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, map[string]any{
		"time":        "2026-03-01T11:00:00Z",
		"keyword":     "Clear MQ Queue",
		"alias":       "a",
		"status":      "PASS",
		"duration_ms": float64(2000),
	}, decoded)
}

func TestObserver_PublishesInOrder(t *testing.T) {
	pub := &recordingPublisher{}
	obs := NewObserver(pub, zap.NewNop().Sugar(), WithInstance("agent-1"))

	for _, kw := range []string{keywords.KeywordConnect, keywords.KeywordPut, keywords.KeywordDisconnect} {
		obs.KeywordFinished(t.Context(), keywords.Call{Keyword: kw})
	}
	obs.Close(t.Context())

	events := pub.published()
	require.Len(t, events, 3)
	require.Equal(t, keywords.KeywordConnect, events[0].Keyword)
	require.Equal(t, keywords.KeywordDisconnect, events[2].Keyword)
	require.Equal(t, "agent-1", events[1].Instance)
	require.Equal(t, 1, pub.closed)

	// calls after Close are ignored, a second Close is a no-op
	obs.KeywordFinished(t.Context(), keywords.Call{Keyword: keywords.KeywordPut})
	obs.Close(t.Context())
	require.Len(t, pub.published(), 3)
	require.Equal(t, 1, pub.closed)
}

func TestObserver_PublishFailureIsLogged(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	core, logs := observer.New(zapcore.WarnLevel)
	obs := NewObserver(pub, zap.New(core).Sugar())

	obs.KeywordFinished(t.Context(), keywords.Call{Keyword: keywords.KeywordGet})
	obs.Close(t.Context())

	entries := logs.FilterMessage("failed to publish audit event").All()
	require.Len(t, entries, 1)
	require.Equal(t, "broker down", entries[0].ContextMap()["error"])
}

func TestObserver_DropsWhenFull(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{})}
	core, logs := observer.New(zapcore.WarnLevel)
	obs := NewObserver(pub, zap.New(core).Sugar(), WithBufferSize(1))

	// the worker takes the first event and blocks, the second fills the buffer
	obs.KeywordFinished(t.Context(), keywords.Call{Keyword: "one"})
	require.Eventually(t, func() bool { return len(obs.events) == 0 }, time.Second, time.Millisecond)
	obs.KeywordFinished(t.Context(), keywords.Call{Keyword: "two"})
	obs.KeywordFinished(t.Context(), keywords.Call{Keyword: "three"})

	require.Equal(t, 1, logs.FilterMessage("audit buffer full, dropping event").Len())

	close(pub.block)
	obs.Close(t.Context())

	events := pub.published()
	require.Len(t, events, 2)
	require.Equal(t, "one", events[0].Keyword)
	require.Equal(t, "two", events[1].Keyword)
}

func TestNopPublisher(t *testing.T) {
	var pub Publisher = NopPublisher{}
	require.NoError(t, pub.Publish(t.Context(), Event{}))
	pub.Close(t.Context())
}
