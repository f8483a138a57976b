package toolbelt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Toolkit is an insertion-ordered, name-keyed collection of tools with
// dispatch and fan-out execution. Names are unique: registering a second tool
// under a taken name is an error, never an overwrite. Schemas, Names, and
// MarkdownDocs all follow registration order.
//
// Dispatch is safe for concurrent use. Add and Remove may run concurrently
// with dispatch; removing a tool does not stop a call already in flight.
type Toolkit struct {
	mu          sync.RWMutex
	tools       *orderedmap.OrderedMap[string, Tool]
	rawTools    *orderedmap.OrderedMap[string, Tool]
	middlewares []Middleware
	sem         chan struct{}
	opts        toolkitOptions
}

// NewToolkit creates an empty Toolkit.
func NewToolkit(opts ...ToolkitOption) *Toolkit {
	o := toolkitOptions{maxConcurrency: 10}
	for _, opt := range opts {
		opt(&o)
	}
	var sem chan struct{}
	if o.maxConcurrency > 0 {
		sem = make(chan struct{}, o.maxConcurrency)
	}
	return &Toolkit{
		tools:    orderedmap.New[string, Tool](),
		rawTools: orderedmap.New[string, Tool](),
		sem:      sem,
		opts:     o,
	}
}

// Add registers one tool. It fails with ErrDuplicateTool when the name is
// taken; the existing registration stays.
func (k *Toolkit) Add(t Tool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.add(t)
}

// AddTools registers tools in order and stops at the first duplicate name,
// leaving the tools registered before it in place. Registration is not
// transactional.
func (k *Toolkit) AddTools(tools ...Tool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, t := range tools {
		if err := k.add(t); err != nil {
			return err
		}
	}
	return nil
}

func (k *Toolkit) add(t Tool) error {
	if t == nil {
		return &ConfigError{Reason: "tool must not be nil"}
	}
	name := t.Name()
	if name == "" {
		return &ConfigError{Reason: "tool name must not be empty"}
	}
	if _, exists := k.rawTools.Get(name); exists {
		return fmt.Errorf("tool %q: %w", name, ErrDuplicateTool)
	}
	k.rawTools.Set(name, t)
	k.tools.Set(name, wrapMiddlewares(t, k.middlewares))
	return nil
}

// Get returns the registered tool, with middlewares applied, or an error
// wrapping ErrToolNotFound.
func (k *Toolkit) Get(name string) (Tool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	t, ok := k.tools.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool %q: %w", name, ErrToolNotFound)
	}
	return t, nil
}

// Has reports whether a tool with the given name is registered.
func (k *Toolkit) Has(name string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	_, ok := k.tools.Get(name)
	return ok
}

// Len returns the number of registered tools.
func (k *Toolkit) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.tools.Len()
}

// Remove unregisters a tool and reports whether it was present.
func (k *Toolkit) Remove(name string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, had := k.rawTools.Delete(name)
	k.tools.Delete(name)
	return had
}

// Clear removes all registered tools.
func (k *Toolkit) Clear() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tools = orderedmap.New[string, Tool]()
	k.rawTools = orderedmap.New[string, Tool]()
}

// Names returns the registered tool names in registration order.
func (k *Toolkit) Names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	names := make([]string, 0, k.tools.Len())
	for pair := k.tools.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Schemas returns the function schemas of all registered tools in
// registration order. This is the exact structure handed to a model's tools
// parameter.
func (k *Toolkit) Schemas() []FunctionSchema {
	k.mu.RLock()
	defer k.mu.RUnlock()
	schemas := make([]FunctionSchema, 0, k.tools.Len())
	for pair := k.tools.Oldest(); pair != nil; pair = pair.Next() {
		schemas = append(schemas, Schema(pair.Value))
	}
	return schemas
}

// Run dispatches one call by name under the toolkit's concurrency bound.
func (k *Toolkit) Run(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	t, err := k.Get(name)
	if err != nil {
		return nil, err
	}
	if err := k.acquire(ctx); err != nil {
		return nil, err
	}
	defer k.release()
	return t.Run(ctx, args)
}

// RunBatch executes all calls concurrently, each under the toolkit's
// concurrency bound, and returns one Result per call in the order the calls
// were issued, regardless of completion order. A failing call never cancels
// its siblings; its Result carries the error while the others carry values.
func (k *Toolkit) RunBatch(ctx context.Context, calls []Call) []Result {
	results := make([]Result, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		i, call := i, call
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := k.Run(ctx, call.Tool, call.Args)
			results[i] = Result{ID: call.ID, Tool: call.Tool, Value: value, Err: err}
		}()
	}
	wg.Wait()
	return results
}

// Use installs the middleware chain, rewrapping every registered tool from
// its raw form so repeated calls never stack. The first middleware is
// outermost. Tools registered afterwards get the same chain.
func (k *Toolkit) Use(middlewares ...Middleware) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.middlewares = middlewares
	for pair := k.rawTools.Oldest(); pair != nil; pair = pair.Next() {
		k.tools.Set(pair.Key, wrapMiddlewares(pair.Value, middlewares))
	}
}

func wrapMiddlewares(t Tool, middlewares []Middleware) Tool {
	for i := len(middlewares) - 1; i >= 0; i-- {
		t = middlewares[i](t)
	}
	return t
}

// acquire takes a semaphore slot, preferring the context's cancellation over
// a free slot when both are ready.
func (k *Toolkit) acquire(ctx context.Context) error {
	if k.sem == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case k.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *Toolkit) release() {
	if k.sem != nil {
		<-k.sem
	}
}
