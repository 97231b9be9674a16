package robotremote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ava-labs/mqlibrary/pkg/keywords"
)

// Method names of the remote library interface.
const (
	MethodGetLibraryInformation   = "get_library_information"
	MethodGetKeywordNames         = "get_keyword_names"
	MethodRunKeyword              = "run_keyword"
	MethodGetKeywordArguments     = "get_keyword_arguments"
	MethodGetKeywordTypes         = "get_keyword_types"
	MethodGetKeywordTags          = "get_keyword_tags"
	MethodGetKeywordDocumentation = "get_keyword_documentation"
	MethodStopRemoteServer        = "stop_remote_server"
)

// StopKeyword is the keyword that stops the server from a test.
const StopKeyword = "Stop Remote Server"

// Result status values.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

const maxRequestBytes = 16 << 20

// Server serves a keyword registry over the remote library interface.
type Server struct {
	reg       *keywords.Registry
	log       *zap.SugaredLogger
	allowStop bool

	httpServer *http.Server
	stopOnce   sync.Once
	stopped    chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithAllowStop lets clients stop the server with stop_remote_server.
func WithAllowStop(allow bool) Option {
	return func(s *Server) { s.allowStop = allow }
}

// NewServer creates a server for reg listening on addr (e.g., "127.0.0.1:8270").
func NewServer(addr string, reg *keywords.Registry, log *zap.SugaredLogger, opts ...Option) *Server {
	s := &Server{
		reg:     reg,
		log:     log,
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router returns the HTTP routes of the server.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRPC).Methods(http.MethodPost)
	r.HandleFunc("/RPC2", s.handleRPC).Methods(http.MethodPost)
	return r
}

// Start begins serving. This is non-blocking.
// Returns a channel that receives an error if the server fails.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("remote server: %w", err)
		}
		close(errCh)
	}()
	return errCh
}

// Serve serves on an existing listener until Shutdown. It blocks.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("remote server: %w", err)
	}
	return nil
}

// Stopped is closed when a client stopped the server.
func (s *Server) Stopped() <-chan struct{} {
	return s.stopped
}

// Shutdown gracefully stops the server, waiting for running keywords to
// finish or until the context is cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	method, params, err := decodeCall(body)

	var resp []byte
	if err != nil {
		s.log.Warnw("rejected remote call", "error", err)
		resp = encodeFault(&Fault{Code: FaultParse, Message: err.Error()})
	} else {
		result, err := s.dispatch(r.Context(), method, params)
		var fault *Fault
		switch {
		case errors.As(err, &fault):
			resp = encodeFault(fault)
		case err != nil:
			resp = encodeFault(&Fault{Code: FaultInternal, Message: err.Error()})
		default:
			resp = encodeResponse(result)
		}
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(resp) //nolint:errcheck // client went away
}

func (s *Server) dispatch(ctx context.Context, method string, params []any) (any, error) {
	switch method {
	case MethodGetLibraryInformation:
		return s.libraryInformation(), nil
	case MethodGetKeywordNames:
		return append(s.reg.Names(), StopKeyword), nil
	case MethodRunKeyword:
		name, args, kwargs, err := runParams(params)
		if err != nil {
			return nil, err
		}
		return s.runKeyword(ctx, name, args, kwargs), nil
	case MethodGetKeywordArguments, MethodGetKeywordTypes, MethodGetKeywordTags, MethodGetKeywordDocumentation:
		name, err := nameParam(params)
		if err != nil {
			return nil, err
		}
		return s.keywordInfo(method, name), nil
	case MethodStopRemoteServer:
		return s.stop(), nil
	}
	return nil, &Fault{Code: FaultMethodNotFound, Message: fmt.Sprintf("method %q is not supported", method)}
}

func nameParam(params []any) (string, error) {
	if len(params) != 1 {
		return "", &Fault{Code: FaultInvalidParams, Message: fmt.Sprintf("expected 1 parameter, got %d", len(params))}
	}
	name, ok := params[0].(string)
	if !ok {
		return "", &Fault{Code: FaultInvalidParams, Message: "keyword name must be a string"}
	}
	return name, nil
}

func runParams(params []any) (string, []any, map[string]any, error) {
	if len(params) < 1 || len(params) > 3 {
		return "", nil, nil, &Fault{Code: FaultInvalidParams, Message: fmt.Sprintf("expected 1 to 3 parameters, got %d", len(params))}
	}
	name, ok := params[0].(string)
	if !ok {
		return "", nil, nil, &Fault{Code: FaultInvalidParams, Message: "keyword name must be a string"}
	}

	var args []any
	if len(params) > 1 {
		switch v := params[1].(type) {
		case []any:
			args = v
		case string:
			// an empty argument list can arrive as an empty untyped value
			if v != "" {
				return "", nil, nil, &Fault{Code: FaultInvalidParams, Message: "keyword arguments must be an array"}
			}
		default:
			return "", nil, nil, &Fault{Code: FaultInvalidParams, Message: "keyword arguments must be an array"}
		}
	}

	var kwargs map[string]any
	if len(params) > 2 {
		switch v := params[2].(type) {
		case map[string]any:
			kwargs = v
		case string:
			if v != "" {
				return "", nil, nil, &Fault{Code: FaultInvalidParams, Message: "named arguments must be a struct"}
			}
		default:
			return "", nil, nil, &Fault{Code: FaultInvalidParams, Message: "named arguments must be a struct"}
		}
	}
	return name, args, kwargs, nil
}

// runKeyword runs a keyword and builds the result struct. Failures are
// reported in the result, never as faults.
func (s *Server) runKeyword(ctx context.Context, name string, args []any, kwargs map[string]any) map[string]any {
	log, out := captureLogger(s.log)
	ctx = keywords.WithLogger(ctx, log)

	var (
		ret any
		err error
	)
	if keywords.NormalizeName(name) == keywords.NormalizeName(StopKeyword) {
		if !s.stop() {
			log.Warn("Stopping the remote server is not allowed.")
		}
	} else {
		ret, err = s.reg.Run(ctx, name, args, kwargs)
	}

	result := map[string]any{
		"status": StatusPass,
		"return": returnValue(ret),
		"output": out.String(),
	}
	if err != nil {
		result["status"] = StatusFail
		result["error"] = err.Error()
		result["traceback"] = fmt.Sprintf("%T: %v", err, err)
		result["continuable"] = false
		result["fatal"] = false
		delete(result, "return")
	}
	return result
}

func returnValue(v any) any {
	if v == nil {
		return ""
	}
	return v
}

func (s *Server) keywordInfo(method, name string) any {
	switch name {
	case "__intro__":
		if method == MethodGetKeywordDocumentation {
			return keywords.Intro
		}
	case "__init__":
		if method == MethodGetKeywordDocumentation {
			return ""
		}
	}

	kw, ok := s.reg.Lookup(name)
	if !ok {
		return emptyInfo(method, name)
	}
	switch method {
	case MethodGetKeywordArguments:
		return kw.ArgSpecs()
	case MethodGetKeywordTypes:
		return kw.ArgTypes()
	case MethodGetKeywordTags:
		return kw.Tags
	default:
		return kw.Doc
	}
}

func emptyInfo(method, name string) any {
	switch method {
	case MethodGetKeywordArguments:
		return []string{}
	case MethodGetKeywordTypes:
		return map[string]any{}
	case MethodGetKeywordTags:
		return []string{}
	default:
		if keywords.NormalizeName(name) == keywords.NormalizeName(StopKeyword) {
			return "Stops the remote server if it allows stopping."
		}
		return ""
	}
}

func (s *Server) libraryInformation() map[string]any {
	info := map[string]any{
		"__intro__": map[string]any{"doc": keywords.Intro},
		"__init__":  map[string]any{"doc": ""},
		StopKeyword: map[string]any{
			"args": []string{},
			"doc":  "Stops the remote server if it allows stopping.",
			"tags": []string{},
		},
	}
	for _, kw := range s.reg.Keywords() {
		info[kw.Name] = map[string]any{
			"args":  kw.ArgSpecs(),
			"types": kw.ArgTypes(),
			"tags":  kw.Tags,
			"doc":   kw.Doc,
		}
	}
	return info
}

// stop closes Stopped when stopping is allowed and reports whether it was.
func (s *Server) stop() bool {
	if !s.allowStop {
		s.log.Warn("client requested stop, but stopping is not allowed")
		return false
	}
	s.stopOnce.Do(func() {
		s.log.Info("remote server stop requested")
		close(s.stopped)
	})
	return true
}
