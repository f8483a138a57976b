package toolbelt

import "time"

// policy is a tool's execution policy, fixed at construction.
type policy struct {
	captureFailures bool
	retry           bool
	maxTimeout      time.Duration
	maxBackoff      time.Duration
	concurrent      bool
}

type toolOptions struct {
	policy   policy
	usage    string
	usageSet bool
	source   string
	tags     []string
}

func defaultToolOptions() toolOptions {
	return toolOptions{
		policy: policy{concurrent: true},
		source: SourceLocal,
	}
}

// ToolOption configures a tool at construction.
type ToolOption func(*toolOptions)

// WithUsage overrides the usage hint extracted from the tool's doc text.
func WithUsage(usage string) ToolOption {
	return func(o *toolOptions) {
		o.usage = usage
		o.usageSet = true
	}
}

// WithRetry re-runs the target on failure with exponential backoff (100ms,
// 200ms, 400ms, ... capped at maxBackoff per pause). maxTimeout bounds the
// whole invocation: once elapsed time plus the next pause would cross it, the
// tool gives up and returns a RetryError wrapping the last failure. Zero
// values select the 60s budget and 10s cap defaults.
//
// Retry needs to observe failures, so combining WithRetry with
// WithFailureCapture is a ConfigError at construction.
func WithRetry(maxTimeout, maxBackoff time.Duration) ToolOption {
	return func(o *toolOptions) {
		o.policy.retry = true
		o.policy.maxTimeout = maxTimeout
		o.policy.maxBackoff = maxBackoff
	}
}

// WithFailureCapture converts target failures into a Failure payload instead
// of an error, so one bad call in a batch reads as data rather than aborting
// orchestration. Validation and configuration errors still propagate.
func WithFailureCapture() ToolOption {
	return func(o *toolOptions) {
		o.policy.captureFailures = true
	}
}

// WithSerial declares the target unsafe for concurrent invocation. The
// wrapper serializes Run calls with an internal lock; the toolkit still fans
// out other tools in parallel around it.
func WithSerial() ToolOption {
	return func(o *toolOptions) {
		o.policy.concurrent = false
	}
}

// WithSource records the tool's provenance. NewTool defaults to SourceLocal;
// the adapters set SourceOpenAPI and SourceMCP.
func WithSource(source string) ToolOption {
	return func(o *toolOptions) {
		o.source = source
	}
}

// WithTags attaches orchestration tags to the tool.
func WithTags(tags ...string) ToolOption {
	return func(o *toolOptions) {
		o.tags = tags
	}
}

func buildToolOptions(opts []ToolOption) (toolOptions, error) {
	o := defaultToolOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.policy.retry && o.policy.captureFailures {
		return toolOptions{}, &ConfigError{Reason: "retry requires propagated errors, remove WithFailureCapture"}
	}
	if o.policy.retry {
		if o.policy.maxTimeout <= 0 {
			o.policy.maxTimeout = defaultMaxTimeout
		}
		if o.policy.maxBackoff <= 0 {
			o.policy.maxBackoff = defaultMaxBackoff
		}
	}
	return o, nil
}

type toolkitOptions struct {
	maxConcurrency int
	reranker       Reranker
}

// ToolkitOption configures a Toolkit.
type ToolkitOption func(*toolkitOptions)

// WithMaxConcurrency bounds how many tool executions run at once across Run
// and RunBatch. The default is 10; zero or negative disables the bound.
func WithMaxConcurrency(n int) ToolkitOption {
	return func(o *toolkitOptions) {
		o.maxConcurrency = n
	}
}

// WithReranker installs the relevance reranker used by RankedSchemas.
func WithReranker(r Reranker) ToolkitOption {
	return func(o *toolkitOptions) {
		o.reranker = r
	}
}
