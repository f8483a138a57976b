package openapi

import "net/http"

type options struct {
	operations []string
	headers    map[string]string
	params     map[string]string
	client     *http.Client
	baseURL    string
}

// Option configures the import and the HTTP targets built from it.
type Option func(*options)

// WithOperations keeps only the named operations. Names are matched after
// generation, so generated method_path names count for operations without an
// operationId.
func WithOperations(names ...string) Option {
	return func(o *options) {
		o.operations = names
	}
}

// WithHeaders adds static headers to every request, typically authentication.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.headers = headers
	}
}

// WithQueryParams adds static query parameters to every request.
func WithQueryParams(params map[string]string) Option {
	return func(o *options) {
		o.params = params
	}
}

// WithHTTPClient sets the client used for invocations. Defaults to
// http.DefaultClient.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithBaseURL overrides the server URL declared in the document.
func WithBaseURL(base string) Option {
	return func(o *options) {
		o.baseURL = base
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
