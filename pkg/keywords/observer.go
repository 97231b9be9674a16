package keywords

import (
	"context"
	"time"
)

// Call describes one finished keyword invocation.
type Call struct {
	Keyword  string
	Alias    string // empty for keywords without an alias argument
	Duration time.Duration
	Err      error
}

// Observer is notified after every keyword run through a Registry.
type Observer interface {
	KeywordFinished(ctx context.Context, call Call)
}

// Recorder receives connection and message counts from a Library.
type Recorder interface {
	ActiveConnections(n int)
	MessagesTransferred(operation string, n int)
}

// Operation names passed to Recorder.MessagesTransferred.
const (
	OperationPut    = "put"
	OperationGet    = "get"
	OperationBrowse = "browse"
	OperationClear  = "clear"
)

type nopRecorder struct{}

func (nopRecorder) ActiveConnections(int)           {}
func (nopRecorder) MessagesTransferred(string, int) {}
