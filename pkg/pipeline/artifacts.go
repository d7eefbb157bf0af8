package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
)

// loadJSON reads and decodes a previously-written interim artifact. It is
// used when SmartResume's start stage is after the stage that produced
// path: that stage is not re-run, so its output must come from disk
// instead of from this invocation's in-memory state (§4.2 "resuming from a
// later stage reloads every upstream artifact it depends on").
func loadJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ArtifactMissingError{Artifact: path}
		}
		return fmt.Errorf("pipeline: reading artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("pipeline: decoding artifact %s: %w", path, err)
	}
	return nil
}
