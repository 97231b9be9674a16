//go:build ibmmq

package ibmmq

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/mqlibrary/pkg/mq"
	"github.com/ibm-messaging/mq-golang/v5/ibmmq"
	"go.uber.org/zap"
)

// Driver connects to queue managers as an MQ client over TCP.
type Driver struct {
	cfg Config
	log *zap.SugaredLogger
}

// New creates a client-mode driver.
func New(cfg Config, log *zap.SugaredLogger) *Driver {
	return &Driver{cfg: cfg.WithDefaults(), log: log}
}

// Connect issues MQCONNX with a client channel definition built from opts.
func (d *Driver) Connect(ctx context.Context, opts mq.ConnectOptions) (mq.QueueManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cd := ibmmq.NewMQCD()
	cd.ChannelName = opts.Channel
	cd.ConnectionName = opts.ConnectionName()
	cd.ChannelType = ibmmq.MQCHT_CLNTCONN
	cd.TransportType = ibmmq.MQXPT_TCP

	cno := ibmmq.NewMQCNO()
	cno.Options = ibmmq.MQCNO_CLIENT_BINDING
	cno.ClientConn = cd

	if opts.Username != "" {
		csp := ibmmq.NewMQCSP()
		csp.AuthenticationType = ibmmq.MQCSP_AUTH_USER_ID_AND_PWD
		csp.UserId = opts.Username
		csp.Password = opts.Password
		cno.SecurityParms = csp
	}

	d.log.Debugw("connecting to queue manager",
		"queueManager", opts.QueueManager,
		"connectionName", opts.ConnectionName(),
		"channel", opts.Channel,
	)

	qmgr, err := ibmmq.Connx(opts.QueueManager, cno)
	if err != nil {
		return nil, convertError("MQCONNX", err)
	}
	return &queueManager{qmgr: qmgr, cfg: d.cfg, log: d.log}, nil
}

type queueManager struct {
	qmgr ibmmq.MQQueueManager
	cfg  Config
	log  *zap.SugaredLogger
}

func (q *queueManager) Open(ctx context.Context, name string, mode mq.OpenMode) (mq.Queue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	od := ibmmq.NewMQOD()
	od.ObjectType = ibmmq.MQOT_Q
	od.ObjectName = name

	options := int32(ibmmq.MQOO_FAIL_IF_QUIESCING)
	switch mode {
	case mq.OpenOutput:
		options |= ibmmq.MQOO_OUTPUT
	case mq.OpenInput:
		options |= ibmmq.MQOO_INPUT_AS_Q_DEF
	case mq.OpenBrowse:
		options |= ibmmq.MQOO_BROWSE
	default:
		return nil, fmt.Errorf("unsupported open mode %s", mode)
	}

	obj, err := q.qmgr.Open(od, options)
	if err != nil {
		return nil, convertError("MQOPEN", err)
	}
	return &queue{obj: obj, name: name, maxLen: q.cfg.MaxMessageLength, log: q.log}, nil
}

func (q *queueManager) Disconnect() error {
	if err := q.qmgr.Disc(); err != nil {
		return convertError("MQDISC", err)
	}
	return nil
}

type queue struct {
	obj    ibmmq.MQObject
	name   string
	maxLen int
	log    *zap.SugaredLogger
}

func (q *queue) Put(ctx context.Context, msg mq.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	md := ibmmq.NewMQMD()
	md.Version = ibmmq.MQMD_VERSION_2
	md.CodedCharSetId = msg.CCSID
	md.Format = msg.Format
	if md.Format == "" {
		md.Format = ibmmq.MQFMT_STRING
	}

	pmo := ibmmq.NewMQPMO()
	pmo.Options = ibmmq.MQPMO_NO_SYNCPOINT | ibmmq.MQPMO_FAIL_IF_QUIESCING

	if err := q.obj.Put(md, pmo, msg.Body); err != nil {
		return convertError("MQPUT", err)
	}
	return nil
}

func (q *queue) Get(ctx context.Context, opts mq.GetOptions) (mq.Message, error) {
	if err := ctx.Err(); err != nil {
		return mq.Message{}, err
	}

	gmo := ibmmq.NewMQGMO()
	gmo.Options = ibmmq.MQGMO_NO_SYNCPOINT | ibmmq.MQGMO_FAIL_IF_QUIESCING
	if opts.Wait > 0 {
		gmo.Options |= ibmmq.MQGMO_WAIT
		gmo.WaitInterval = waitInterval(opts.Wait)
	} else {
		gmo.Options |= ibmmq.MQGMO_NO_WAIT
	}
	if opts.Convert {
		gmo.Options |= ibmmq.MQGMO_CONVERT
	}
	switch opts.Browse {
	case mq.BrowseFirst:
		gmo.Options |= ibmmq.MQGMO_BROWSE_FIRST
	case mq.BrowseNext:
		gmo.Options |= ibmmq.MQGMO_BROWSE_NEXT
	}

	size := min(initialBufferSize, q.maxLen)
	for {
		md := ibmmq.NewMQMD()
		md.Version = ibmmq.MQMD_VERSION_2

		buffer := make([]byte, size)
		n, err := q.obj.Get(md, gmo, buffer)
		if err == nil {
			return mq.Message{Body: buffer[:n], CCSID: md.CodedCharSetId, Format: md.Format}, nil
		}

		converted := convertError("MQGET", err)
		if !mq.IsReason(converted, mq.RCTruncatedMsgFailed) || size >= q.maxLen {
			return mq.Message{}, converted
		}

		// the browse cursor already sits on the oversized message
		if opts.Browse != mq.BrowseNone {
			gmo.Options &^= ibmmq.MQGMO_BROWSE_FIRST | ibmmq.MQGMO_BROWSE_NEXT
			gmo.Options |= ibmmq.MQGMO_BROWSE_MSG_UNDER_CURSOR
		}
		size = nextBufferSize(size, n, q.maxLen)
		q.log.Debugw("message truncated, retrying with larger buffer", "queue", q.name, "bufferSize", size)
	}
}

func (q *queue) Close() error {
	if err := q.obj.Close(ibmmq.MQCO_NONE); err != nil {
		return convertError("MQCLOSE", err)
	}
	return nil
}

// convertError maps an MQ binding error onto *mq.Error so callers never depend
// on the cgo types.
func convertError(op string, err error) error {
	var mqret *ibmmq.MQReturn
	if errors.As(err, &mqret) {
		return &mq.Error{Op: op, CompCode: mq.CompCode(mqret.MQCC), Reason: mq.Reason(mqret.MQRC)}
	}
	return fmt.Errorf("%s: %w", op, err)
}
