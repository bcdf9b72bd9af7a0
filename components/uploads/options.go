package uploads

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/attachment/store"
)

const (
	defaultRoutePath      = "/api/uploads"
	defaultFieldName      = "files"
	defaultMaxMemory      = 8 << 20
	defaultMaxRequestSize = 64 << 20
)

type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath      string
	FieldName      string
	KeyPrefix      string
	MaxMemory      int64
	MaxRequestSize int64
	Constraints    attachment.Constraints
	Messenger      attachment.Messenger
	Store          store.Store
	Guard          GuardFunc
	Logger         *zap.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:      defaultRoutePath,
		FieldName:      defaultFieldName,
		MaxMemory:      defaultMaxMemory,
		MaxRequestSize: defaultMaxRequestSize,
		Constraints:    attachment.DefaultConstraints(),
		Logger:         zap.NewNop(),
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = defaultRoutePath
	}
	if opts.FieldName == "" {
		opts.FieldName = defaultFieldName
	}
	if opts.MaxMemory <= 0 {
		opts.MaxMemory = defaultMaxMemory
	}
	if opts.MaxRequestSize <= 0 {
		opts.MaxRequestSize = defaultMaxRequestSize
	}
	if opts.Constraints.MaxFileSize <= 0 {
		opts.Constraints = attachment.DefaultConstraints()
	}
	if opts.Constraints.Accept != nil {
		opts.Constraints.Accept = append([]string{}, opts.Constraints.Accept...)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

// WithFieldName sets the multipart field files are read from.
func WithFieldName(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.FieldName = name
	}
}

// WithKeyPrefix prefixes every stored object key.
func WithKeyPrefix(prefix string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.KeyPrefix = prefix
	}
}

func WithMaxMemory(size int64) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxMemory = size
	}
}

func WithMaxRequestSize(size int64) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxRequestSize = size
	}
}

func WithConstraints(c attachment.Constraints) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Constraints = c
	}
}

// WithMessenger controls how rule failures are worded in responses.
func WithMessenger(m attachment.Messenger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Messenger = m
	}
}

func WithStore(s store.Store) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Store = s
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}
