package workers

import "log"

// LogFunc receives progress lines from a worker.
type LogFunc func(source, message string)

// NoOpLogger does nothing (default)
var NoOpLogger LogFunc = func(source, message string) {}

// StdLogger writes through the standard logger.
var StdLogger LogFunc = func(source, message string) {
	log.Printf("%s: %s", source, message)
}
