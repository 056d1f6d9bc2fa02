package session

import (
	"github.com/leandrodaf/midihex/sdk/contracts"
)

// DefaultQueueSize bounds the number of received messages waiting for stdout.
const DefaultQueueSize = 1024

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l contracts.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithQueueSize sets the capacity of the receive queue. Values below one
// are ignored.
func WithQueueSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithSessionID overrides the generated session identifier.
func WithSessionID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}
