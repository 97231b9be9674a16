package keywords

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Keyword names.
const (
	KeywordConnect       = "Connect MQ"
	KeywordPut           = "Put MQ Message"
	KeywordGet           = "Get MQ Messages"
	KeywordBrowse        = "Browse MQ Messages"
	KeywordClear         = "Clear MQ Queue"
	KeywordDisconnect    = "Disconnect MQ"
	KeywordDisconnectAll = "Disconnect All MQ Connections"
)

// Handler runs a keyword with bound arguments.
type Handler func(ctx context.Context, args Args) (any, error)

// Keyword is a named, documented operation.
type Keyword struct {
	Name    string
	Tags    []string
	Doc     string
	Args    []Arg
	handler Handler
}

// ArgSpecs returns the argument specification, e.g. ["queue", "alias=default"].
func (k *Keyword) ArgSpecs() []string {
	specs := make([]string, len(k.Args))
	for i, a := range k.Args {
		specs[i] = a.Spec()
	}
	return specs
}

// ArgTypes returns the declared non-string argument types by name.
func (k *Keyword) ArgTypes() map[string]string {
	types := make(map[string]string)
	for _, a := range k.Args {
		if a.Type == TypeInt || a.Type == TypeBool {
			types[a.Name] = a.Type.String()
		}
	}
	return types
}

// ArgumentError is returned when call arguments do not match a keyword's signature.
type ArgumentError struct {
	Keyword string
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("Keyword '%s' %s", e.Keyword, e.Message)
}

// UnknownKeywordError is returned for names that match no keyword.
type UnknownKeywordError struct {
	Name string
}

func (e *UnknownKeywordError) Error() string {
	return fmt.Sprintf("No keyword with name '%s' found.", e.Name)
}

// Registry is the keyword table of a Library.
type Registry struct {
	lib       *Library
	keywords  []*Keyword
	index     map[string]*Keyword
	observers []Observer
}

// NewRegistry builds the keyword table for lib. Observers are notified after
// every Run.
func NewRegistry(lib *Library, observers ...Observer) *Registry {
	r := &Registry{
		lib:       lib,
		index:     make(map[string]*Keyword),
		observers: observers,
	}
	for _, kw := range r.definitions() {
		r.keywords = append(r.keywords, kw)
		r.index[NormalizeName(kw.Name)] = kw
	}
	return r
}

// Library returns the library the keywords operate on.
func (r *Registry) Library() *Library {
	return r.lib
}

// NormalizeName lowercases name and drops spaces and underscores.
func NormalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '_' || r == '\t' {
			return -1
		}
		return r
	}, strings.ToLower(name))
}

// Keywords returns the keywords in declaration order.
func (r *Registry) Keywords() []*Keyword {
	return r.keywords
}

// Names returns the keyword names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.keywords))
	for i, kw := range r.keywords {
		names[i] = kw.Name
	}
	return names
}

// Lookup finds a keyword by name.
func (r *Registry) Lookup(name string) (*Keyword, bool) {
	kw, ok := r.index[NormalizeName(name)]
	return kw, ok
}

// Bind matches positional and named values to the keyword's arguments, fills
// defaults and converts every value to its declared type.
func (r *Registry) Bind(kw *Keyword, positional []any, named map[string]any) (Args, error) {
	argErr := func(format string, a ...any) error {
		return &ArgumentError{Keyword: kw.Name, Message: fmt.Sprintf(format, a...)}
	}

	if len(positional) > len(kw.Args) {
		return nil, argErr("expected %s, got %d.", r.arity(kw), len(positional))
	}

	raw := make(map[string]any, len(kw.Args))
	for i, v := range positional {
		raw[kw.Args[i].Name] = v
	}
	for name, v := range named {
		arg, ok := findArg(kw, name)
		if !ok {
			return nil, argErr("got unexpected named argument '%s'.", name)
		}
		if _, dup := raw[arg.Name]; dup {
			return nil, argErr("got multiple values for argument '%s'.", arg.Name)
		}
		raw[arg.Name] = v
	}

	bound := make(Args, len(kw.Args))
	for _, arg := range kw.Args {
		v, given := raw[arg.Name]
		if !given {
			if !arg.HasDefault {
				return nil, argErr("missing value for argument '%s'.", arg.Name)
			}
			v = arg.Default
		}
		converted, err := convert(arg, v)
		if err != nil {
			return nil, err
		}
		bound[arg.Name] = converted
	}
	return bound, nil
}

func findArg(kw *Keyword, name string) (Arg, bool) {
	for _, a := range kw.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}

func (r *Registry) arity(kw *Keyword) string {
	minArgs := 0
	for _, a := range kw.Args {
		if !a.HasDefault {
			minArgs++
		}
	}
	maxArgs := len(kw.Args)
	if minArgs == maxArgs {
		return fmt.Sprintf("%d argument%s", maxArgs, plural(maxArgs))
	}
	return fmt.Sprintf("%d to %d arguments", minArgs, maxArgs)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Run looks up, binds and runs a keyword and notifies the observers.
func (r *Registry) Run(ctx context.Context, name string, positional []any, named map[string]any) (any, error) {
	kw, ok := r.Lookup(name)
	if !ok {
		err := &UnknownKeywordError{Name: name}
		r.notify(ctx, Call{Keyword: name, Err: err})
		return nil, err
	}

	start := time.Now()
	args, err := r.Bind(kw, positional, named)
	if err != nil {
		r.notify(ctx, Call{Keyword: kw.Name, Duration: time.Since(start), Err: err})
		return nil, err
	}

	result, err := kw.handler(ctx, args)
	r.notify(ctx, Call{
		Keyword:  kw.Name,
		Alias:    r.callAlias(kw, args),
		Duration: time.Since(start),
		Err:      err,
	})
	return result, err
}

func (r *Registry) callAlias(kw *Keyword, args Args) string {
	if _, ok := findArg(kw, "alias"); !ok {
		return ""
	}
	return r.lib.alias(args.String("alias"))
}

func (r *Registry) notify(ctx context.Context, call Call) {
	for _, o := range r.observers {
		o.KeywordFinished(ctx, call)
	}
}

func (r *Registry) definitions() []*Keyword {
	lib := r.lib
	cfg := lib.Config()

	return []*Keyword{
		{
			Name: KeywordConnect,
			Tags: []string{"Connection"},
			Doc:  connectDoc,
			Args: []Arg{
				required("queue_manager", TypeString),
				required("hostname", TypeString),
				required("port", TypeInt),
				required("channel", TypeString),
				optional("username", TypeOptionalString, nil),
				optional("password", TypeOptionalString, nil),
				optional("alias", TypeString, cfg.DefaultAlias),
			},
			handler: func(ctx context.Context, a Args) (any, error) {
				return nil, lib.Connect(ctx, ConnectArgs{
					QueueManager: a.String("queue_manager"),
					Hostname:     a.String("hostname"),
					Port:         a.Int("port"),
					Channel:      a.String("channel"),
					Username:     a.String("username"),
					Password:     a.String("password"),
					Alias:        a.String("alias"),
				})
			},
		},
		{
			Name: KeywordPut,
			Tags: []string{"Put"},
			Doc:  putDoc,
			Args: []Arg{
				required("queue", TypeString),
				required("message", TypeString),
				optional("ccsid", TypeInt, int(cfg.DefaultCCSID)),
				optional("alias", TypeString, cfg.DefaultAlias),
			},
			handler: func(ctx context.Context, a Args) (any, error) {
				return nil, lib.Put(ctx, PutArgs{
					Queue:   a.String("queue"),
					Message: a.String("message"),
					CCSID:   int32(a.Int("ccsid")),
					Alias:   a.String("alias"),
				})
			},
		},
		{
			Name: KeywordGet,
			Tags: []string{"Retrieve"},
			Doc:  getDoc,
			Args: []Arg{
				required("queue", TypeString),
				optional("message_amount", TypeInt, 1),
				optional("convert", TypeBool, true),
				optional("timeout", TypeTime, cfg.GetTimeout),
				optional("alias", TypeString, cfg.DefaultAlias),
			},
			handler: func(ctx context.Context, a Args) (any, error) {
				return lib.Get(ctx, GetArgs{
					Queue:         a.String("queue"),
					MessageAmount: a.Int("message_amount"),
					Convert:       a.Bool("convert"),
					Timeout:       a.Duration("timeout"),
					Alias:         a.String("alias"),
				})
			},
		},
		{
			Name: KeywordBrowse,
			Tags: []string{"Retrieve"},
			Doc:  browseDoc,
			Args: []Arg{
				required("queue", TypeString),
				optional("max_messages", TypeInt, 1),
				optional("timeout", TypeTime, cfg.BrowseTimeout),
				optional("convert", TypeBool, true),
				optional("alias", TypeString, cfg.DefaultAlias),
			},
			handler: func(ctx context.Context, a Args) (any, error) {
				return lib.Browse(ctx, BrowseArgs{
					Queue:       a.String("queue"),
					MaxMessages: a.Int("max_messages"),
					Timeout:     a.Duration("timeout"),
					Convert:     a.Bool("convert"),
					Alias:       a.String("alias"),
				})
			},
		},
		{
			Name: KeywordClear,
			Tags: []string{"Cleanup"},
			Doc:  clearDoc,
			Args: []Arg{
				required("queue", TypeString),
				optional("alias", TypeString, cfg.DefaultAlias),
			},
			handler: func(ctx context.Context, a Args) (any, error) {
				return lib.Clear(ctx, a.String("queue"), a.String("alias"))
			},
		},
		{
			Name: KeywordDisconnect,
			Tags: []string{"Connection"},
			Doc:  disconnectDoc,
			Args: []Arg{
				optional("alias", TypeString, cfg.DefaultAlias),
			},
			handler: func(ctx context.Context, a Args) (any, error) {
				lib.Disconnect(ctx, a.String("alias"))
				return nil, nil
			},
		},
		{
			Name: KeywordDisconnectAll,
			Tags: []string{"Connection"},
			Doc:  disconnectAllDoc,
			handler: func(ctx context.Context, _ Args) (any, error) {
				lib.DisconnectAll(ctx)
				return nil, nil
			},
		},
	}
}
