// Package toolbelt turns Go functions into LLM-callable tools: it derives the
// JSON Schema the model sees, validates the JSON the model sends back, and
// executes the call under an explicit policy. Adapters in the openapi and mcp
// subpackages import external operations as the same kind of tool, so an
// agent loop never cares where a tool came from.
//
// # Overview
//
// A model emits tool calls as JSON. The package closes the loop around them:
//
//	Go function + argument struct
//	    -> NewTool (schema derivation, doc text parsing)
//	    -> Tool
//	    -> Toolkit (ordered registration, unique names)
//	    -> Run / RunBatch (validate, execute under policy, marshal result)
//
// One set of struct tags is the single source of truth: the same schema that
// is exported to the model validates the arguments coming back from it.
//
// # Key concepts
//
//   - Required means no default. A field with a jsonschema default is
//     optional and the default is injected when the model omits it;
//     every other field is required, pointers and omitempty included.
//   - Errors are data. Validation failures carry dotted field paths
//     ("address.street"), retry exhaustion reports attempts and elapsed time
//     and wraps the last failure, and WithFailureCapture turns target
//     failures into a {"error": ...} payload for the model to read.
//   - Fan-out keeps order. RunBatch returns results in the order the calls
//     were issued, and one failing call never cancels its siblings.
//   - External tools are ordinary tools. openapi.Tools and mcp.Tools produce
//     the same wrapper NewTool does, with provenance available through
//     ToolMetadata.
//
// # Example
//
//	type AddArgs struct {
//		A int `json:"a" jsonschema:"description=First addend"`
//		B int `json:"b" jsonschema:"description=Second addend"`
//	}
//
//	add, err := toolbelt.NewTool("add_numbers", "Adds two numbers.",
//		func(ctx context.Context, args AddArgs) (int, error) {
//			return args.A + args.B, nil
//		})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	kit := toolbelt.NewToolkit()
//	if err := kit.Add(add); err != nil {
//		log.Fatal(err)
//	}
//
//	out, err := kit.Run(ctx, "add_numbers", json.RawMessage(`{"a": 5, "b": 3}`))
//	// out == json.RawMessage("8")
package toolbelt
