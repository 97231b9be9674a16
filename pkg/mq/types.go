package mq

import (
	"context"
	"fmt"
	"time"
)

// DefaultCCSID is the coded character set used for outgoing text messages (UTF-8).
const DefaultCCSID int32 = 1208

// FormatString is the MQMD format name for character data.
const FormatString = "MQSTR   "

// ConnectOptions describes a client-mode channel connection.
type ConnectOptions struct {
	QueueManager string
	Host         string
	Port         int
	Channel      string
	Username     string
	Password     string
}

// ConnectionName renders the MQ connection name, e.g. "localhost(1414)".
func (o ConnectOptions) ConnectionName() string {
	return fmt.Sprintf("%s(%d)", o.Host, o.Port)
}

// OpenMode selects the MQOO options a queue is opened with.
type OpenMode int

const (
	OpenOutput OpenMode = iota
	OpenInput
	OpenBrowse
)

func (m OpenMode) String() string {
	switch m {
	case OpenOutput:
		return "output"
	case OpenInput:
		return "input"
	case OpenBrowse:
		return "browse"
	default:
		return fmt.Sprintf("OpenMode(%d)", int(m))
	}
}

// BrowseMode selects the browse cursor movement of a get.
type BrowseMode int

const (
	BrowseNone BrowseMode = iota
	BrowseFirst
	BrowseNext
)

// Message is a message body plus the descriptor fields this module cares about.
type Message struct {
	Body   []byte
	CCSID  int32
	Format string
}

// GetOptions controls a single MQGET.
//
// Wait <= 0 gets without waiting. Wait > 0 waits up to that interval for a
// message to arrive.
type GetOptions struct {
	Wait    time.Duration
	Convert bool
	Browse  BrowseMode
}

// Driver connects to queue managers.
type Driver interface {
	Connect(ctx context.Context, opts ConnectOptions) (QueueManager, error)
}

// QueueManager is a live connection to one queue manager.
type QueueManager interface {
	// Open opens a queue for the given mode. The returned Queue must be closed.
	Open(ctx context.Context, queue string, mode OpenMode) (Queue, error)
	// Disconnect ends the connection. The QueueManager is unusable afterwards.
	Disconnect() error
}

// Queue is an open queue handle.
type Queue interface {
	Put(ctx context.Context, msg Message) error
	Get(ctx context.Context, opts GetOptions) (Message, error)
	Close() error
}
