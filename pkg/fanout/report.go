package fanout

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteReport serializes the result list as an indented JSON array to path.
func WriteReport(path string, results []QueryResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results to %s: %w", path, err)
	}

	return nil
}
