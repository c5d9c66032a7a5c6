package hook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/roach88/priorledger/internal/atomicfile"
	"github.com/roach88/priorledger/internal/ir"
)

const manifestSchemaURL = "https://priorledger.local/schemas/baseline-manifest.schema.json"

const manifestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["run_id", "baselines"],
  "properties": {
    "run_id": {"type": "string", "minLength": 1},
    "baselines": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["artifact_scope", "artifact_path"],
        "properties": {
          "artifact_scope": {"type": "string", "minLength": 1},
          "artifact_path": {"type": "string", "minLength": 1}
        }
      }
    },
    "next_seed": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

var (
	manifestSchemaOnce     sync.Once
	manifestSchemaCompiled *jsonschema.Schema
	manifestSchemaErr      error
)

func compiledManifestSchema() (*jsonschema.Schema, error) {
	manifestSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(manifestSchemaURL, strings.NewReader(manifestSchema)); err != nil {
			manifestSchemaErr = fmt.Errorf("manifest schema load failed: %w", err)
			return
		}
		manifestSchemaCompiled, manifestSchemaErr = c.Compile(manifestSchemaURL)
	})
	return manifestSchemaCompiled, manifestSchemaErr
}

// decodeGeneric decodes JSON keeping numbers as json.Number so a rewrite
// does not reformat them.
func decodeGeneric(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// LoadManifest reads and schema-validates a baseline manifest.
func LoadManifest(path string) (*ir.BaselineManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest not found at %s", path)
		}
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}

// ParseManifest validates data against the manifest schema and decodes it.
func ParseManifest(data []byte) (*ir.BaselineManifest, error) {
	generic, err := decodeGeneric(data)
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	schema, err := compiledManifestSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	var m ir.BaselineManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// MergeNextSeed merges scope -> snapshot pointers into the manifest's
// next_seed and rewrites it atomically. Existing scopes not in updates are
// kept, and unknown top-level fields survive the rewrite.
func MergeNextSeed(path string, updates map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest %s: %w", path, err)
	}
	generic, err := decodeGeneric(data)
	if err != nil {
		return fmt.Errorf("parse manifest %s: %w", path, err)
	}
	raw, ok := generic.(map[string]any)
	if !ok {
		return fmt.Errorf("manifest %s is not a JSON object", path)
	}

	seed, _ := raw["next_seed"].(map[string]any)
	if seed == nil {
		seed = make(map[string]any, len(updates))
	}
	for scope, snap := range updates {
		seed[scope] = snap
	}
	raw["next_seed"] = seed

	out, err := ir.EncodeJSON(raw, "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	out = append(out, '\n')
	return atomicfile.Write(path, out)
}
