package repositories

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decode unmarshals a response body; an empty body leaves dst untouched and reports false.
func decode(data []byte, dst any, what string) (bool, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrMalformedResponse, what, err)
	}
	return true, nil
}
