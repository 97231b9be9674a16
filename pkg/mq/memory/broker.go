// Package memory provides an in-process mq.Driver.
//
// A Broker hosts named queue managers and their local queues. Connection and
// queue failures are reported with the same reason codes a real queue manager
// returns, so code written against mq.Driver behaves identically against both.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ava-labs/mqlibrary/pkg/mq"
)

// Broker is an in-memory set of queue managers. It implements mq.Driver.
type Broker struct {
	mu       sync.Mutex
	managers map[string]*manager
	failures map[string][]mq.Reason
}

type manager struct {
	name     string
	channels map[string]struct{} // nil accepts any channel
	hosts    map[string]struct{} // nil accepts any host
	users    map[string]string   // nil disables authentication
	queues   map[string]*queue
}

type queue struct {
	msgs    []stored
	nextSeq uint64
	notify  chan struct{}
}

type stored struct {
	seq uint64
	msg mq.Message
}

// ManagerOption configures a queue manager added with AddQueueManager.
type ManagerOption func(*manager)

// WithQueues defines local queues on the queue manager.
func WithQueues(names ...string) ManagerOption {
	return func(m *manager) {
		for _, n := range names {
			m.queues[n] = newQueue()
		}
	}
}

// WithChannels restricts the server-connection channels clients may use.
func WithChannels(names ...string) ManagerOption {
	return func(m *manager) {
		if m.channels == nil {
			m.channels = make(map[string]struct{})
		}
		for _, n := range names {
			m.channels[n] = struct{}{}
		}
	}
}

// WithHosts restricts the hostnames the queue manager is reachable on.
func WithHosts(names ...string) ManagerOption {
	return func(m *manager) {
		if m.hosts == nil {
			m.hosts = make(map[string]struct{})
		}
		for _, n := range names {
			m.hosts[n] = struct{}{}
		}
	}
}

// WithCredentials enables user/password authentication and registers a user.
func WithCredentials(user, password string) ManagerOption {
	return func(m *manager) {
		if m.users == nil {
			m.users = make(map[string]string)
		}
		m.users[user] = password
	}
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{
		managers: make(map[string]*manager),
		failures: make(map[string][]mq.Reason),
	}
}

// AddQueueManager defines (or redefines) a queue manager.
func (b *Broker) AddQueueManager(name string, opts ...ManagerOption) {
	m := &manager{name: name, queues: make(map[string]*queue)}
	for _, opt := range opts {
		opt(m)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.managers[name] = m
}

// AddQueue defines a local queue on an existing queue manager.
func (b *Broker) AddQueue(qmgr, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.managers[qmgr]
	if !ok {
		return fmt.Errorf("queue manager %q not defined", qmgr)
	}
	if _, exists := m.queues[name]; !exists {
		m.queues[name] = newQueue()
	}
	return nil
}

// Seed appends a raw message body to a queue, bypassing any connection.
func (b *Broker) Seed(qmgr, name string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, err := b.lookupQueue(qmgr, name)
	if err != nil {
		return err
	}
	q.append(mq.Message{Body: slices.Clone(body), CCSID: mq.DefaultCCSID, Format: mq.FormatString})
	return nil
}

// Depth returns the number of messages on a queue.
func (b *Broker) Depth(qmgr, name string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, err := b.lookupQueue(qmgr, name)
	if err != nil {
		return 0, err
	}
	return len(q.msgs), nil
}

// Messages returns a copy of the messages on a queue, oldest first.
func (b *Broker) Messages(qmgr, name string) ([]mq.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, err := b.lookupQueue(qmgr, name)
	if err != nil {
		return nil, err
	}
	out := make([]mq.Message, len(q.msgs))
	for i, s := range q.msgs {
		out[i] = s.msg
	}
	return out, nil
}

// FailNext makes the next call of the given MQI verb (MQCONNX, MQOPEN, MQPUT,
// MQGET, MQCLOSE, MQDISC) fail with reason. Calls queue up in order.
func (b *Broker) FailNext(op string, reason mq.Reason) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[op] = append(b.failures[op], reason)
}

// injected pops a pending failure for op. Callers hold b.mu.
func (b *Broker) injected(op string) error {
	pending := b.failures[op]
	if len(pending) == 0 {
		return nil
	}
	b.failures[op] = pending[1:]
	return mq.NewError(op, pending[0])
}

func (b *Broker) lookupQueue(qmgr, name string) (*queue, error) {
	m, ok := b.managers[qmgr]
	if !ok {
		return nil, fmt.Errorf("queue manager %q not defined", qmgr)
	}
	q, ok := m.queues[name]
	if !ok {
		return nil, fmt.Errorf("queue %q not defined on %q", name, qmgr)
	}
	return q, nil
}

// Connect validates opts against the queue manager definition.
func (b *Broker) Connect(ctx context.Context, opts mq.ConnectOptions) (mq.QueueManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.injected("MQCONNX"); err != nil {
		return nil, err
	}

	m, ok := b.managers[opts.QueueManager]
	if !ok {
		return nil, mq.NewError("MQCONNX", mq.RCQMgrNameError)
	}
	if m.hosts != nil {
		if _, ok := m.hosts[opts.Host]; !ok {
			return nil, mq.NewError("MQCONNX", mq.RCHostNotAvailable)
		}
	}
	if m.channels != nil {
		if _, ok := m.channels[opts.Channel]; !ok {
			return nil, mq.NewError("MQCONNX", mq.RCUnknownChannelName)
		}
	}
	if m.users != nil {
		password, ok := m.users[opts.Username]
		if !ok || password != opts.Password {
			return nil, mq.NewError("MQCONNX", mq.RCNotAuthorized)
		}
	}
	return &connection{broker: b, manager: m}, nil
}

type connection struct {
	broker  *Broker
	manager *manager
	closed  bool
}

func (c *connection) Open(ctx context.Context, name string, mode mq.OpenMode) (mq.Queue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()

	if c.closed {
		return nil, mq.NewError("MQOPEN", mq.RCHconnError)
	}
	if err := c.broker.injected("MQOPEN"); err != nil {
		return nil, err
	}
	q, ok := c.manager.queues[name]
	if !ok {
		return nil, mq.NewError("MQOPEN", mq.RCUnknownObjectName)
	}
	return &handle{conn: c, q: q, mode: mode}, nil
}

func (c *connection) Disconnect() error {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()

	if c.closed {
		return mq.NewError("MQDISC", mq.RCHconnError)
	}
	c.closed = true
	return c.broker.injected("MQDISC")
}

type handle struct {
	conn   *connection
	q      *queue
	mode   mq.OpenMode
	cursor uint64
	closed bool
}

func (h *handle) Put(ctx context.Context, msg mq.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b := h.conn.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := h.usable("MQPUT"); err != nil {
		return err
	}
	if h.mode != mq.OpenOutput {
		return mq.NewError("MQPUT", mq.RCNotOpenForOutput)
	}
	if err := b.injected("MQPUT"); err != nil {
		return err
	}

	msg.Body = slices.Clone(msg.Body)
	if msg.Format == "" {
		msg.Format = mq.FormatString
	}
	h.q.append(msg)
	return nil
}

func (h *handle) Get(ctx context.Context, opts mq.GetOptions) (mq.Message, error) {
	b := h.conn.broker
	deadline := time.Now().Add(opts.Wait)

	for {
		if err := ctx.Err(); err != nil {
			return mq.Message{}, err
		}

		b.mu.Lock()
		msg, ok, err := h.take(opts)
		notify := h.q.notify
		b.mu.Unlock()

		if err != nil {
			return mq.Message{}, err
		}
		if ok {
			return msg, nil
		}

		remaining := time.Until(deadline)
		if opts.Wait <= 0 || remaining <= 0 {
			return mq.Message{}, mq.NewError("MQGET", mq.RCNoMsgAvailable)
		}

		timer := time.NewTimer(remaining)
		select {
		case <-notify:
			timer.Stop()
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return mq.Message{}, ctx.Err()
		}
	}
}

// take removes or browses the next eligible message. Callers hold the broker lock.
func (h *handle) take(opts mq.GetOptions) (mq.Message, bool, error) {
	if err := h.usable("MQGET"); err != nil {
		return mq.Message{}, false, err
	}
	if err := h.conn.broker.injected("MQGET"); err != nil {
		return mq.Message{}, false, err
	}

	if opts.Browse == mq.BrowseNone {
		if h.mode != mq.OpenInput {
			return mq.Message{}, false, mq.NewError("MQGET", mq.RCNotOpenForInput)
		}
		if len(h.q.msgs) == 0 {
			return mq.Message{}, false, nil
		}
		next := h.q.msgs[0]
		h.q.msgs = h.q.msgs[1:]
		return next.msg, true, nil
	}

	if h.mode != mq.OpenBrowse {
		return mq.Message{}, false, mq.NewError("MQGET", mq.RCNotOpenForBrowse)
	}
	after := h.cursor
	if opts.Browse == mq.BrowseFirst {
		after = 0
	}
	for _, s := range h.q.msgs {
		if s.seq > after {
			h.cursor = s.seq
			return s.msg, true, nil
		}
	}
	return mq.Message{}, false, nil
}

func (h *handle) usable(op string) error {
	if h.conn.closed {
		return mq.NewError(op, mq.RCHconnError)
	}
	if h.closed {
		return mq.NewError(op, mq.RCHobjError)
	}
	return nil
}

func (h *handle) Close() error {
	b := h.conn.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if h.closed {
		return mq.NewError("MQCLOSE", mq.RCHobjError)
	}
	h.closed = true
	return b.injected("MQCLOSE")
}

func newQueue() *queue {
	return &queue{nextSeq: 1, notify: make(chan struct{})}
}

// append adds a message and wakes waiting getters. Callers hold the broker lock.
func (q *queue) append(msg mq.Message) {
	q.msgs = append(q.msgs, stored{seq: q.nextSeq, msg: msg})
	q.nextSeq++
	close(q.notify)
	q.notify = make(chan struct{})
}
