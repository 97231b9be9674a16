package mq

import (
	"errors"
	"fmt"
)

// Error is a failed MQI call.
type Error struct {
	Op       string // MQI verb, e.g. MQCONNX, MQGET
	CompCode CompCode
	Reason   Reason
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: MQCC = %s [%d] MQRC = %s [%d]", e.Op, e.CompCode, int32(e.CompCode), e.Reason, int32(e.Reason))
}

// NewError returns a failed-completion Error for op.
func NewError(op string, reason Reason) *Error {
	return &Error{Op: op, CompCode: CCFailed, Reason: reason}
}

// ReasonOf extracts the reason code from err. ok is false when err does not wrap an *Error.
func ReasonOf(err error) (Reason, bool) {
	var mqErr *Error
	if !errors.As(err, &mqErr) {
		return RCNone, false
	}
	return mqErr.Reason, true
}

// IsReason reports whether err wraps an *Error with the given reason.
func IsReason(err error, reason Reason) bool {
	rc, ok := ReasonOf(err)
	return ok && rc == reason
}

// IsNoMessage reports whether err is MQRC_NO_MSG_AVAILABLE.
func IsNoMessage(err error) bool {
	return IsReason(err, RCNoMsgAvailable)
}

// ConnectError is a connection failure with a human-readable explanation.
type ConnectError struct {
	Message string
	Err     error
}

func (e *ConnectError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s (%v)", e.Message, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// TranslateConnectError explains a failed connect attempt in terms of the
// connection settings that most likely caused it. A nil err returns nil.
func TranslateConnectError(err error, opts ConnectOptions) error {
	if err == nil {
		return nil
	}
	rc, ok := ReasonOf(err)
	if !ok {
		return fmt.Errorf("failed to connect to MQ: %w", err)
	}

	var msg string
	switch rc {
	case RCQMgrNameError:
		msg = fmt.Sprintf("Queue Manager %s does not exist or is unavailable.", opts.QueueManager)
	case RCHostNotAvailable:
		msg = fmt.Sprintf("Cannot connect to MQ host %s:%d. Host not available or refusing connection.", opts.Host, opts.Port)
	case RCUnknownChannelName:
		msg = fmt.Sprintf("Channel %s is unknown or not configured correctly on the MQ server.", opts.Channel)
	case RCSecurityError, RCNotAuthorized:
		msg = fmt.Sprintf("Authentication failed. Check username and password for queue manager %s.", opts.QueueManager)
	case RCChannelConfigError:
		msg = fmt.Sprintf("Channel %s could not be negotiated with %s. Client and server code pages are likely incompatible (client code page 65001 is not supported).",
			opts.Channel, opts.ConnectionName())
	case RCQMgrNotAvailable:
		msg = fmt.Sprintf("Queue Manager %s is not running or not accepting connections.", opts.QueueManager)
	default:
		msg = fmt.Sprintf("MQ connection failed with reason code %d: %v", int32(rc), err)
	}
	return &ConnectError{Message: msg, Err: err}
}

// QueueError is a failed queue operation with a human-readable explanation.
type QueueError struct {
	Op      string
	Queue   string
	Message string
	Err     error
}

func (e *QueueError) Error() string {
	return fmt.Sprintf("%s on queue '%s' failed: %s (%v)", e.Op, e.Queue, e.Message, e.Err)
}

func (e *QueueError) Unwrap() error { return e.Err }

var queueReasonText = map[Reason]string{
	RCUnknownObjectName:       "queue does not exist on the queue manager",
	RCQFull:                   "queue is full",
	RCPutInhibited:            "put operations are inhibited for the queue",
	RCGetInhibited:            "get operations are inhibited for the queue",
	RCMsgTooBigForQ:           "message is larger than the queue's maximum message length",
	RCNotAuthorized:           "user is not authorized to access the queue",
	RCObjectInUse:             "queue is opened exclusively by another application",
	RCConnectionBroken:        "connection to the queue manager was broken",
	RCConnectionQuiescing:     "connection is quiescing",
	RCQMgrQuiescing:           "queue manager is quiescing",
	RCConnectionNotAuthorized: "connection is not authorized",
}

// TranslateQueueError explains a failed queue operation. Reasons without a known
// explanation are returned unchanged. A nil err returns nil.
func TranslateQueueError(err error, op, queue string) error {
	if err == nil {
		return nil
	}
	rc, ok := ReasonOf(err)
	if !ok {
		return err
	}
	text, known := queueReasonText[rc]
	if !known {
		return err
	}
	return &QueueError{Op: op, Queue: queue, Message: text, Err: err}
}
