package mcp

type options struct {
	include []string
}

// Option configures the import.
type Option func(*options)

// WithTools keeps only the named tools from the server's list.
func WithTools(names ...string) Option {
	return func(o *options) {
		o.include = names
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
