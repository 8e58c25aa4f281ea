package repository

import (
	"encoding/json"
	"fmt"
)

// Cached payloads are stored as JSON in both backends so a hit always hands the caller a fresh copy.

func encodeCached(key string, value interface{}) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	return payload, nil
}

func decodeCached(key string, raw []byte, dest interface{}) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}
