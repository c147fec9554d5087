package cache

import (
	"encoding/json"
	"time"
)

// Entry is one cached response and the moment it was stored.
type Entry[T any] struct {
	Data      T
	Timestamp time.Time
}

type entryJSON[T any] struct {
	Data      T     `json:"data"`
	Timestamp int64 `json:"timestamp"` // epoch millis
}

func (e Entry[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON[T]{Data: e.Data, Timestamp: e.Timestamp.UnixMilli()})
}

func (e *Entry[T]) UnmarshalJSON(data []byte) error {
	var raw entryJSON[T]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Data = raw.Data
	e.Timestamp = time.UnixMilli(raw.Timestamp)
	return nil
}
