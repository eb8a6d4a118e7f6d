package botkit

import (
	"encoding/json"
	"fmt"

	"github.com/0x0BSoD/noticeboard/internal/model"
)

// ParseJSON decodes command arguments written as a JSON object.
func ParseJSON[T any](src string) (T, error) {
	var args T

	if err := json.Unmarshal([]byte(src), &args); err != nil {
		return args, fmt.Errorf("expected a JSON object: %v: %w", err, model.ErrInvalidArgument)
	}

	return args, nil
}
