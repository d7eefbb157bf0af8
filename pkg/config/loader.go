package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Load reads a YAML configuration file, merges it onto the built-in
// defaults, and validates the result. A missing path is not an error: the
// pure defaults are returned, since the core must be runnable with no
// config file at all (§6 lists every key as optional).
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, &LoadError{File: path, Err: err}
	}
	return LoadBytes(b)
}

// LoadBytes parses raw YAML bytes, merges onto defaults, and validates.
func LoadBytes(b []byte) (*Config, error) {
	var user Config
	if err := yaml.Unmarshal(b, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	merged := mergeInto(Default(), &user)
	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Validate checks struct-tag constraints and the cross-field invariants the
// tags alone cannot express (high > medium, keep_at_least <= keep_runs).
func Validate(c *Config) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if c.Similarity.High <= c.Similarity.Medium {
		return fmt.Errorf("%w: similarity.high (%v) must be greater than similarity.medium (%v)",
			ErrValidationFailed, c.Similarity.High, c.Similarity.Medium)
	}
	if c.Run.KeepRuns > 0 && c.Run.KeepAtLeast > c.Run.KeepRuns {
		return fmt.Errorf("%w: run.keep_at_least (%d) must not exceed run.keep_runs (%d)",
			ErrValidationFailed, c.Run.KeepAtLeast, c.Run.KeepRuns)
	}
	return nil
}

// AsSettingsMap flattens a Config into the generic map[string]any shape
// hashutil.ConfigHash expects, by round-tripping through YAML then decoding
// into map[string]any. This keeps the hash derivation and the typed Config
// in lockstep: any field added to Config is automatically covered.
func AsSettingsMap(c *Config) (map[string]any, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return jsonable(m), nil
}

// jsonable recursively converts yaml.v3's map[string]interface{} decode
// result (which may contain map[string]interface{} already, but nested
// sequences can contain further such maps) into a form hashutil.ConfigHash's
// json.Marshal can serialize deterministically.
func jsonable(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonable(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonable(val)
		}
		return out
	default:
		return v
	}
}
