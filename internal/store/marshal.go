package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/animeval/internal/canon"
)

// marshalEntities converts the baked entity list to canonical JSON TEXT.
func marshalEntities(ids []string) (string, error) {
	arr := make([]any, len(ids))
	for i, id := range ids {
		arr[i] = id
	}
	data, err := canon.Marshal(arr)
	if err != nil {
		return "", fmt.Errorf("marshal entities: %w", err)
	}
	return string(data), nil
}

// unmarshalEntities parses the entity list. Returns an empty slice, not nil.
func unmarshalEntities(data string) ([]string, error) {
	ids := []string{}
	if data == "" || data == "[]" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal entities: %w", err)
	}
	return ids, nil
}
