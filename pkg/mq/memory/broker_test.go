package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ava-labs/mqlibrary/pkg/mq"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestBroker() *Broker {
	b := NewBroker()
	b.AddQueueManager("QM1",
		WithQueues("Q1", "Q2"),
		WithChannels("DEV.APP.SVRCONN"),
		WithHosts("localhost"),
		WithCredentials("app", "passw0rd"),
	)
	return b
}

func validOptions() mq.ConnectOptions {
	return mq.ConnectOptions{
		QueueManager: "QM1",
		Host:         "localhost",
		Port:         1414,
		Channel:      "DEV.APP.SVRCONN",
		Username:     "app",
		Password:     "passw0rd",
	}
}

func connect(t *testing.T, b *Broker) mq.QueueManager {
	t.Helper()
	qm, err := b.Connect(t.Context(), validOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = qm.Disconnect() })
	return qm
}

func TestConnect_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*mq.ConnectOptions)
		reason mq.Reason
	}{
		{name: "unknown queue manager", mutate: func(o *mq.ConnectOptions) { o.QueueManager = "QM9" }, reason: mq.RCQMgrNameError},
		{name: "unreachable host", mutate: func(o *mq.ConnectOptions) { o.Host = "elsewhere" }, reason: mq.RCHostNotAvailable},
		{name: "unknown channel", mutate: func(o *mq.ConnectOptions) { o.Channel = "NOPE" }, reason: mq.RCUnknownChannelName},
		{name: "bad password", mutate: func(o *mq.ConnectOptions) { o.Password = "wrong" }, reason: mq.RCNotAuthorized},
		{name: "missing user", mutate: func(o *mq.ConnectOptions) { o.Username = "" }, reason: mq.RCNotAuthorized},
	}

	b := newTestBroker()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.mutate(&opts)
			_, err := b.Connect(t.Context(), opts)
			require.True(t, mq.IsReason(err, tt.reason), "got %v", err)
		})
	}
}

func TestConnect_OpenAccessWithoutRestrictions(t *testing.T) {
	b := NewBroker()
	b.AddQueueManager("QM1", WithQueues("Q1"))

	qm, err := b.Connect(t.Context(), mq.ConnectOptions{QueueManager: "QM1", Host: "any", Channel: "ANY"})
	require.NoError(t, err)
	require.NoError(t, qm.Disconnect())
}

func TestPutGet_FIFO(t *testing.T) {
	b := newTestBroker()
	qm := connect(t, b)
	ctx := t.Context()

	out, err := qm.Open(ctx, "Q1", mq.OpenOutput)
	require.NoError(t, err)
	for _, body := range []string{"one", "two", "three"} {
		require.NoError(t, out.Put(ctx, mq.Message{Body: []byte(body), CCSID: 1208}))
	}
	require.NoError(t, out.Close())

	depth, err := b.Depth("QM1", "Q1")
	require.NoError(t, err)
	require.Equal(t, 3, depth)

	in, err := qm.Open(ctx, "Q1", mq.OpenInput)
	require.NoError(t, err)
	defer in.Close()

	for _, want := range []string{"one", "two", "three"} {
		msg, err := in.Get(ctx, mq.GetOptions{})
		require.NoError(t, err)
		require.Equal(t, want, string(msg.Body))
		require.Equal(t, int32(1208), msg.CCSID)
		require.Equal(t, mq.FormatString, msg.Format)
	}

	_, err = in.Get(ctx, mq.GetOptions{})
	require.True(t, mq.IsNoMessage(err))
}

func TestGet_WaitsForMessage(t *testing.T) {
	b := newTestBroker()
	qm := connect(t, b)
	ctx := t.Context()

	in, err := qm.Open(ctx, "Q1", mq.OpenInput)
	require.NoError(t, err)
	defer in.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(20 * time.Millisecond)
		_ = b.Seed("QM1", "Q1", []byte("late"))
	}()

	msg, err := in.Get(ctx, mq.GetOptions{Wait: 2 * time.Second})
	require.NoError(t, err)
	require.Equal(t, "late", string(msg.Body))
	<-done
}

func TestGet_WaitExpires(t *testing.T) {
	b := newTestBroker()
	qm := connect(t, b)

	in, err := qm.Open(t.Context(), "Q1", mq.OpenInput)
	require.NoError(t, err)
	defer in.Close()

	start := time.Now()
	_, err = in.Get(t.Context(), mq.GetOptions{Wait: 30 * time.Millisecond})
	require.True(t, mq.IsNoMessage(err))
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestGet_ContextCanceled(t *testing.T) {
	b := newTestBroker()
	qm := connect(t, b)

	in, err := qm.Open(t.Context(), "Q1", mq.OpenInput)
	require.NoError(t, err)
	defer in.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err = in.Get(ctx, mq.GetOptions{Wait: time.Minute})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBrowse_DoesNotRemove(t *testing.T) {
	b := newTestBroker()
	qm := connect(t, b)
	ctx := t.Context()

	for _, body := range []string{"a", "b"} {
		require.NoError(t, b.Seed("QM1", "Q2", []byte(body)))
	}

	br, err := qm.Open(ctx, "Q2", mq.OpenBrowse)
	require.NoError(t, err)
	defer br.Close()

	first, err := br.Get(ctx, mq.GetOptions{Browse: mq.BrowseFirst})
	require.NoError(t, err)
	require.Equal(t, "a", string(first.Body))

	second, err := br.Get(ctx, mq.GetOptions{Browse: mq.BrowseNext})
	require.NoError(t, err)
	require.Equal(t, "b", string(second.Body))

	_, err = br.Get(ctx, mq.GetOptions{Browse: mq.BrowseNext})
	require.True(t, mq.IsNoMessage(err))

	again, err := br.Get(ctx, mq.GetOptions{Browse: mq.BrowseFirst})
	require.NoError(t, err)
	require.Equal(t, "a", string(again.Body))

	depth, err := b.Depth("QM1", "Q2")
	require.NoError(t, err)
	require.Equal(t, 2, depth)
}

func TestOpenModes_Enforced(t *testing.T) {
	b := newTestBroker()
	qm := connect(t, b)
	ctx := t.Context()

	_, err := qm.Open(ctx, "MISSING", mq.OpenInput)
	require.True(t, mq.IsReason(err, mq.RCUnknownObjectName))

	in, err := qm.Open(ctx, "Q1", mq.OpenInput)
	require.NoError(t, err)
	require.True(t, mq.IsReason(in.Put(ctx, mq.Message{Body: []byte("x")}), mq.RCNotOpenForOutput))
	_, err = in.Get(ctx, mq.GetOptions{Browse: mq.BrowseFirst})
	require.True(t, mq.IsReason(err, mq.RCNotOpenForBrowse))
	require.NoError(t, in.Close())
	require.True(t, mq.IsReason(in.Close(), mq.RCHobjError))

	br, err := qm.Open(ctx, "Q1", mq.OpenBrowse)
	require.NoError(t, err)
	_, err = br.Get(ctx, mq.GetOptions{})
	require.True(t, mq.IsReason(err, mq.RCNotOpenForInput))
	require.NoError(t, br.Close())
}

func TestDisconnect(t *testing.T) {
	b := newTestBroker()
	qm, err := b.Connect(t.Context(), validOptions())
	require.NoError(t, err)

	require.NoError(t, qm.Disconnect())
	require.True(t, mq.IsReason(qm.Disconnect(), mq.RCHconnError))

	_, err = qm.Open(t.Context(), "Q1", mq.OpenInput)
	require.True(t, mq.IsReason(err, mq.RCHconnError))
}

func TestFailNext(t *testing.T) {
	b := newTestBroker()
	b.FailNext("MQCONNX", mq.RCQMgrNotAvailable)

	_, err := b.Connect(t.Context(), validOptions())
	require.True(t, mq.IsReason(err, mq.RCQMgrNotAvailable))

	// one-shot
	qm := connect(t, b)

	b.FailNext("MQPUT", mq.RCQFull)
	out, err := qm.Open(t.Context(), "Q1", mq.OpenOutput)
	require.NoError(t, err)
	defer out.Close()
	require.True(t, mq.IsReason(out.Put(t.Context(), mq.Message{Body: []byte("x")}), mq.RCQFull))
	require.NoError(t, out.Put(t.Context(), mq.Message{Body: []byte("x")}))
}

func TestBrokerHelpers_UnknownTargets(t *testing.T) {
	b := newTestBroker()
	require.Error(t, b.Seed("QM9", "Q1", nil))
	require.Error(t, b.Seed("QM1", "Q9", nil))
	require.Error(t, b.AddQueue("QM9", "Q1"))
	require.NoError(t, b.AddQueue("QM1", "Q3"))

	_, err := b.Depth("QM1", "Q9")
	require.Error(t, err)

	msgs, err := b.Messages("QM1", "Q3")
	require.NoError(t, err)
	require.Empty(t, msgs)
}
