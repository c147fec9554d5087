package cache

import "time"

// Recorder receives cache events. Implementations must be safe for concurrent use.
type Recorder interface {
	Hit(cache string)
	Miss(cache string)
	ObserveFetch(cache string, duration time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) Hit(string)                               {}
func (nopRecorder) Miss(string)                              {}
func (nopRecorder) ObserveFetch(string, time.Duration, error) {}
