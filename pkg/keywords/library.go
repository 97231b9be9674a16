package keywords

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ava-labs/mqlibrary/internal/codepage"
	"github.com/ava-labs/mqlibrary/pkg/mq"
	"github.com/ava-labs/mqlibrary/pkg/textcodec"
)

// ErrNoConnection is returned when a keyword names an alias that is not connected.
var ErrNoConnection = errors.New("No valid MQ alias provided or no default connection available.") //nolint:staticcheck // keyword failure text

// AliasInUseError is returned when connecting an alias that is already connected.
type AliasInUseError struct {
	Alias string
}

func (e *AliasInUseError) Error() string {
	return fmt.Sprintf("Alias '%s' is already connected.", e.Alias)
}

// CountMismatchError is returned by Get when fewer messages than requested arrived.
type CountMismatchError struct {
	Expected int
	Received int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("Expected %d message(s), but received %d.", e.Expected, e.Received)
}

// QueueNotEmptyError is returned by Clear when the verification get still finds a message.
type QueueNotEmptyError struct {
	Queue string
}

func (e *QueueNotEmptyError) Error() string {
	return fmt.Sprintf("Queue '%s' still contains messages after clearing.", e.Queue)
}

// ConnectArgs are the arguments of Connect.
type ConnectArgs struct {
	QueueManager string
	Hostname     string
	Port         int
	Channel      string
	Username     string // empty connects without credentials
	Password     string
	Alias        string
}

// PutArgs are the arguments of Put.
type PutArgs struct {
	Queue   string
	Message string
	CCSID   int32
	Alias   string
}

// GetArgs are the arguments of Get.
type GetArgs struct {
	Queue         string
	MessageAmount int
	Convert       bool
	Timeout       time.Duration // per message
	Alias         string
}

// BrowseArgs are the arguments of Browse.
type BrowseArgs struct {
	Queue       string
	MaxMessages int
	Timeout     time.Duration // per message
	Convert     bool
	Alias       string
}

// Library tracks queue manager connections by alias and runs MQ operations on them.
type Library struct {
	cfg      Config
	driver   mq.Driver
	log      *zap.SugaredLogger
	recorder Recorder

	mu    sync.Mutex
	conns map[string]mq.QueueManager
}

// Option configures a Library.
type Option func(*Library)

// WithRecorder reports connection and message counts to r.
func WithRecorder(r Recorder) Option {
	return func(l *Library) {
		if r != nil {
			l.recorder = r
		}
	}
}

// maxPrealloc bounds the slice capacity reserved before messages arrive.
const maxPrealloc = 64

// consoleCodePage is replaced in tests.
var consoleCodePage = codepage.Unsupported

// New creates a Library that connects through driver.
func New(driver mq.Driver, cfg Config, log *zap.SugaredLogger, opts ...Option) *Library {
	l := &Library{
		cfg:      cfg.WithDefaults(),
		driver:   driver,
		log:      log,
		recorder: nopRecorder{},
		conns:    make(map[string]mq.QueueManager),
	}
	for _, opt := range opts {
		opt(l)
	}

	if cp, bad := consoleCodePage(); bad {
		l.log.Warn(codepage.Warning(cp))
	}
	return l
}

// Config returns the effective configuration.
func (l *Library) Config() Config {
	return l.cfg
}

// Aliases returns the connected aliases in sorted order.
func (l *Library) Aliases() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	aliases := make([]string, 0, len(l.conns))
	for alias := range l.conns {
		aliases = append(aliases, alias)
	}
	slices.Sort(aliases)
	return aliases
}

func (l *Library) alias(alias string) string {
	if alias == "" {
		return l.cfg.DefaultAlias
	}
	return alias
}

// Connect connects to a queue manager over a client channel and stores the
// connection under args.Alias.
func (l *Library) Connect(ctx context.Context, args ConnectArgs) error {
	log := l.logger(ctx)
	alias := l.alias(args.Alias)

	if l.connected(alias) {
		return &AliasInUseError{Alias: alias}
	}

	opts := mq.ConnectOptions{
		QueueManager: args.QueueManager,
		Host:         args.Hostname,
		Port:         args.Port,
		Channel:      args.Channel,
		Username:     args.Username,
		Password:     args.Password,
	}
	qmgr, err := l.driver.Connect(ctx, opts)
	if err != nil {
		translated := mq.TranslateConnectError(err, opts)
		var connErr *mq.ConnectError
		if errors.As(translated, &connErr) {
			log.Error(connErr.Message)
		} else {
			log.Errorf("Failed to connect to MQ: %v", err)
		}
		return translated
	}

	l.mu.Lock()
	if _, taken := l.conns[alias]; taken {
		// lost a race with a concurrent Connect on the same alias
		l.mu.Unlock()
		if derr := qmgr.Disconnect(); derr != nil {
			log.Warnf("Error while disconnecting duplicate connection for alias '%s': %v", alias, derr)
		}
		return &AliasInUseError{Alias: alias}
	}
	l.conns[alias] = qmgr
	active := len(l.conns)
	l.mu.Unlock()

	l.recorder.ActiveConnections(active)
	log.Infof("Connected to MQ with alias '%s'.", alias)
	return nil
}

func (l *Library) connected(alias string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.conns[alias]
	return ok
}

func (l *Library) queueManager(alias string) (mq.QueueManager, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	qmgr, ok := l.conns[alias]
	if !ok {
		return nil, ErrNoConnection
	}
	return qmgr, nil
}

// openQueue opens queue on the connection of alias and returns a close func
// that folds a close failure into *errp when nothing else failed.
func (l *Library) openQueue(ctx context.Context, alias, queue string, mode mq.OpenMode, op string) (mq.Queue, func(errp *error), error) {
	qmgr, err := l.queueManager(alias)
	if err != nil {
		return nil, nil, err
	}
	q, err := qmgr.Open(ctx, queue, mode)
	if err != nil {
		return nil, nil, mq.TranslateQueueError(err, op, queue)
	}
	closeFn := func(errp *error) {
		if cerr := q.Close(); cerr != nil && *errp == nil {
			*errp = fmt.Errorf("failed to close queue '%s': %w", queue, cerr)
		}
	}
	return q, closeFn, nil
}

// Put puts one text message, encoded as UTF-8, on args.Queue.
func (l *Library) Put(ctx context.Context, args PutArgs) (err error) {
	log := l.logger(ctx)
	alias := l.alias(args.Alias)

	q, closeQueue, err := l.openQueue(ctx, alias, args.Queue, mq.OpenOutput, "put")
	if err != nil {
		return err
	}
	defer closeQueue(&err)

	ccsid := args.CCSID
	if ccsid == 0 {
		ccsid = l.cfg.DefaultCCSID
	}
	msg := mq.Message{
		Body:   textcodec.Encode(args.Message),
		CCSID:  ccsid,
		Format: mq.FormatString,
	}
	if err := q.Put(ctx, msg); err != nil {
		return mq.TranslateQueueError(err, "put", args.Queue)
	}

	l.recorder.MessagesTransferred(OperationPut, 1)
	log.Infof("Message put on queue '%s' via alias '%s'.", args.Queue, alias)
	return nil
}

// Get removes exactly args.MessageAmount messages from args.Queue and returns
// them decoded. Running out of messages first is a CountMismatchError.
func (l *Library) Get(ctx context.Context, args GetArgs) (messages []string, err error) {
	log := l.logger(ctx)
	alias := l.alias(args.Alias)

	if args.MessageAmount < 0 {
		return nil, fmt.Errorf("message_amount must not be negative, got %d", args.MessageAmount)
	}

	q, closeQueue, err := l.openQueue(ctx, alias, args.Queue, mq.OpenInput, "get")
	if err != nil {
		return nil, err
	}
	defer closeQueue(&err)

	opts := mq.GetOptions{Wait: args.Timeout, Convert: args.Convert}
	messages = make([]string, 0, min(args.MessageAmount, maxPrealloc))
	for range args.MessageAmount {
		msg, err := q.Get(ctx, opts)
		if err != nil {
			if mq.IsNoMessage(err) {
				log.Infof("No more messages available on queue '%s'.", args.Queue)
				break
			}
			log.Errorf("Failed to get message from queue '%s': %v", args.Queue, err)
			return nil, mq.TranslateQueueError(err, "get", args.Queue)
		}
		text := l.decode(log, msg.Body)
		messages = append(messages, text)
		log.Infof("Received message from queue '%s': %s", args.Queue, text)
	}
	l.recorder.MessagesTransferred(OperationGet, len(messages))

	if len(messages) != args.MessageAmount {
		mismatch := &CountMismatchError{Expected: args.MessageAmount, Received: len(messages)}
		log.Error(mismatch.Error())
		return nil, mismatch
	}
	return messages, nil
}

// Browse reads up to args.MaxMessages messages from args.Queue without removing
// them. Fewer messages than requested is not an error.
func (l *Library) Browse(ctx context.Context, args BrowseArgs) (messages []string, err error) {
	log := l.logger(ctx)
	alias := l.alias(args.Alias)

	if args.MaxMessages < 0 {
		return nil, fmt.Errorf("max_messages must not be negative, got %d", args.MaxMessages)
	}

	q, closeQueue, err := l.openQueue(ctx, alias, args.Queue, mq.OpenBrowse, "browse")
	if err != nil {
		return nil, err
	}
	defer closeQueue(&err)

	log.Infof("Browsing messages on '%s' via alias '%s'...", args.Queue, alias)

	messages = make([]string, 0, min(args.MaxMessages, maxPrealloc))
	for i := range args.MaxMessages {
		opts := mq.GetOptions{Wait: args.Timeout, Convert: args.Convert, Browse: mq.BrowseNext}
		if i == 0 {
			opts.Browse = mq.BrowseFirst
		}

		msg, err := q.Get(ctx, opts)
		if err != nil {
			if mq.IsNoMessage(err) {
				log.Infof("No more messages available to browse on queue '%s'.", args.Queue)
				break
			}
			log.Errorf("Error while browsing message: %v", err)
			return nil, mq.TranslateQueueError(err, "browse", args.Queue)
		}
		text := l.decode(log, msg.Body)
		messages = append(messages, text)
		log.Infof("Browsed message %d: %s", i+1, text)
	}
	l.recorder.MessagesTransferred(OperationBrowse, len(messages))
	return messages, nil
}

// Clear removes every message from queue without waiting and then verifies the
// queue is empty. It returns the number of messages removed.
func (l *Library) Clear(ctx context.Context, queue, alias string) (cleared int, err error) {
	log := l.logger(ctx)
	alias = l.alias(alias)

	q, closeQueue, err := l.openQueue(ctx, alias, queue, mq.OpenInput, "clear")
	if err != nil {
		return 0, err
	}
	defer closeQueue(&err)

	log.Infof("Clearing all messages from queue '%s' via alias '%s'...", queue, alias)

	noWait := mq.GetOptions{}
	for {
		_, err := q.Get(ctx, noWait)
		if err != nil {
			if mq.IsNoMessage(err) {
				break
			}
			log.Errorf("Error while clearing queue: %v", err)
			return cleared, mq.TranslateQueueError(err, "clear", queue)
		}
		cleared++
	}
	l.recorder.MessagesTransferred(OperationClear, cleared)
	log.Infof("Cleared %d message(s) from queue '%s' via alias '%s'.", cleared, queue, alias)

	_, err = q.Get(ctx, noWait)
	switch {
	case err == nil:
		return cleared, &QueueNotEmptyError{Queue: queue}
	case mq.IsNoMessage(err):
		log.Infof("Verified queue '%s' is empty.", queue)
		return cleared, nil
	default:
		log.Errorf("Unexpected error while verifying queue: %v", err)
		return cleared, mq.TranslateQueueError(err, "clear", queue)
	}
}

// Disconnect closes the connection stored under alias. Unknown aliases are
// ignored. The alias is forgotten even when the disconnect fails.
func (l *Library) Disconnect(ctx context.Context, alias string) {
	log := l.logger(ctx)
	alias = l.alias(alias)

	l.mu.Lock()
	qmgr, ok := l.conns[alias]
	delete(l.conns, alias)
	active := len(l.conns)
	l.mu.Unlock()

	if !ok {
		return
	}
	l.recorder.ActiveConnections(active)

	if err := qmgr.Disconnect(); err != nil {
		log.Warnf("Error while disconnecting alias '%s': %v", alias, err)
		return
	}
	log.Infof("Disconnected from MQ alias '%s'.", alias)
}

// DisconnectAll disconnects every stored alias.
func (l *Library) DisconnectAll(ctx context.Context) {
	for _, alias := range l.Aliases() {
		l.Disconnect(ctx, alias)
	}
}

func (l *Library) decode(log *zap.SugaredLogger, body []byte) string {
	text, fellBack := textcodec.Decode(body)
	if fellBack {
		log.Warn("UTF-8 decoding failed, falling back to ISO-8859-1.")
	}
	return text
}
