package toolbelt

import (
	"errors"
	"maps"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshotCustomTypes saves the RegisterType table and restores it when the
// test finishes, so registrations cannot leak between tests.
func snapshotCustomTypes(t *testing.T) {
	t.Helper()
	customTypesMu.Lock()
	saved := maps.Clone(customTypes)
	customTypesMu.Unlock()
	t.Cleanup(func() {
		customTypesMu.Lock()
		customTypes = saved
		customTypesMu.Unlock()
	})
}

func mustSchemaMap[T any](t *testing.T) map[string]any {
	t.Helper()
	ext, err := NewExtractor[T]()
	require.NoError(t, err)
	return ext.Schema()
}

func properties(t *testing.T, schema map[string]any) map[string]any {
	t.Helper()
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, "schema has no properties object: %v", schema)
	return props
}

func requiredList(t *testing.T, schema map[string]any) []string {
	t.Helper()
	rawReq, ok := schema["required"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(rawReq))
	for _, r := range rawReq {
		out = append(out, r.(string))
	}
	return out
}

func TestDeriveSchemaBasicTypes(t *testing.T) {
	type args struct {
		Name   string   `json:"name"`
		Count  int      `json:"count"`
		Ratio  float64  `json:"ratio"`
		Active bool     `json:"active"`
		Tags   []string `json:"tags"`
	}

	schema := mustSchemaMap[args](t)
	assert.Equal(t, "object", schema["type"])
	assert.NotContains(t, schema, "$schema")
	assert.NotContains(t, schema, "$id")

	props := properties(t, schema)
	assert.Equal(t, "string", props["name"].(map[string]any)["type"])
	assert.Equal(t, "integer", props["count"].(map[string]any)["type"])
	assert.Equal(t, "number", props["ratio"].(map[string]any)["type"])
	assert.Equal(t, "boolean", props["active"].(map[string]any)["type"])

	tags := props["tags"].(map[string]any)
	assert.Equal(t, "array", tags["type"])
	assert.Equal(t, "string", tags["items"].(map[string]any)["type"])
}

func TestDeriveSchemaRequiredMeansNoDefault(t *testing.T) {
	type args struct {
		Location string `json:"location"`
		Unit     string `json:"unit" jsonschema:"default=celsius,enum=celsius,enum=fahrenheit"`
		Days     int    `json:"days" jsonschema:"default=1"`
		Detail   *bool  `json:"detail"`
		Note     string `json:"note,omitempty"`
	}

	schema := mustSchemaMap[args](t)

	// Pointers and omitempty do not make a field optional. Only defaults do.
	assert.Equal(t, []string{"detail", "location", "note"}, requiredList(t, schema))
}

func TestDeriveSchemaNestedStructs(t *testing.T) {
	type address struct {
		Street string `json:"street"`
		City   string `json:"city" jsonschema:"default=Springfield"`
	}
	type args struct {
		Name    string  `json:"name"`
		Address address `json:"address"`
	}

	schema := mustSchemaMap[args](t)
	assert.Equal(t, []string{"address", "name"}, requiredList(t, schema))

	props := properties(t, schema)
	addr := props["address"].(map[string]any)
	assert.Equal(t, "object", addr["type"])
	assert.Equal(t, []string{"street"}, requiredList(t, addr))

	addrProps := addr["properties"].(map[string]any)
	assert.Equal(t, "string", addrProps["street"].(map[string]any)["type"])
	assert.Equal(t, "Springfield", addrProps["city"].(map[string]any)["default"])
}

func TestDeriveSchemaTimeAndMaps(t *testing.T) {
	type args struct {
		When   time.Time      `json:"when"`
		Scores map[string]int `json:"scores"`
		Extra  map[string]any `json:"extra"`
	}

	schema := mustSchemaMap[args](t)
	props := properties(t, schema)

	when := props["when"].(map[string]any)
	assert.Equal(t, "string", when["type"])
	assert.Equal(t, "date-time", when["format"])

	assert.Equal(t, "object", props["scores"].(map[string]any)["type"])
	assert.Equal(t, "object", props["extra"].(map[string]any)["type"])
}

func TestDeriveSchemaUnsupportedTypes(t *testing.T) {
	t.Run("channel field", func(t *testing.T) {
		type args struct {
			Ch chan int `json:"ch"`
		}
		_, err := NewExtractor[args]()
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "ch", schemaErr.Param)
	})

	t.Run("func field", func(t *testing.T) {
		type args struct {
			Fn func() `json:"fn"`
		}
		_, err := NewExtractor[args]()
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "fn", schemaErr.Param)
	})

	t.Run("interface field", func(t *testing.T) {
		type args struct {
			V any `json:"v"`
		}
		_, err := NewExtractor[args]()
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "v", schemaErr.Param)
	})

	t.Run("nested offender keeps its dotted path", func(t *testing.T) {
		type inner struct {
			Ch chan int `json:"ch"`
		}
		type args struct {
			In inner `json:"in"`
		}
		_, err := NewExtractor[args]()
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "in.ch", schemaErr.Param)
	})

	t.Run("int-keyed map", func(t *testing.T) {
		type args struct {
			M map[int]string `json:"m"`
		}
		_, err := NewExtractor[args]()
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
	})
}

func TestDeriveSchemaRecursiveType(t *testing.T) {
	type node struct {
		Value string  `json:"value"`
		Next  *node   `json:"next"`
		Kids  []*node `json:"kids"`
	}

	_, err := NewExtractor[node]()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestDeriveSchemaNonStructRoot(t *testing.T) {
	_, err := NewExtractor[int]()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewExtractor[map[string]any]()
	require.ErrorAs(t, err, &cfgErr)
}

type ticketID struct {
	value string
}

func TestRegisterType(t *testing.T) {
	snapshotCustomTypes(t)
	RegisterType(ticketID{}, "string", "ticket")

	type args struct {
		Ticket ticketID  `json:"ticket"`
		Parent *ticketID `json:"parent"`
	}

	schema := mustSchemaMap[args](t)
	props := properties(t, schema)

	ticket := props["ticket"].(map[string]any)
	assert.Equal(t, "string", ticket["type"])
	assert.Equal(t, "ticket", ticket["format"])

	parent := props["parent"].(map[string]any)
	assert.Equal(t, "string", parent["type"])
}

func TestRegisterTypePanics(t *testing.T) {
	assert.Panics(t, func() { RegisterType(nil, "string", "") })
	assert.Panics(t, func() { RegisterType(ticketID{}, "", "") })
}

func TestBackToBackDerivationsAreIndependent(t *testing.T) {
	type args struct {
		Name string `json:"name"`
	}

	first, err := NewExtractor[args]()
	require.NoError(t, err)
	second, err := NewExtractor[args]()
	require.NoError(t, err)

	// Mutating one exported map must not reach the other extractor.
	firstSchema := first.Schema()
	firstSchema["type"] = "tampered"
	assert.Equal(t, "object", second.Schema()["type"])
	assert.Equal(t, "object", first.Schema()["type"])
}

func TestValidationErrorTaxonomy(t *testing.T) {
	type args struct {
		Name string `json:"name"`
	}
	ext, err := NewExtractor[args]()
	require.NoError(t, err)

	_, err = ext.ParseAndValidate(raw(`{}`))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.True(t, errors.Is(err, ErrValidation))
}
