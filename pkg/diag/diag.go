// Package diag provides correlation-ID'd structured logging for a
// single encode or decode pass.
package diag

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Session ties every log line emitted during one Writer.Write or
// Reader.Read call to a single correlation ID, so concurrent encodes
// and decodes can be told apart in a shared log stream.
type Session struct {
	id     string
	logger *slog.Logger
}

// NewSession creates a Session with a fresh UUIDv7 correlation ID.
// UUIDv7 embeds a timestamp in its most significant bits, so sessions
// sort by creation time in a log aggregator.
func NewSession(debug bool) *Session {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	id := uuid.Must(uuid.NewV7()).String()
	return &Session{
		id:     id,
		logger: slog.New(handler).With("session", id),
	}
}

// ID returns the session's correlation ID.
func (s *Session) ID() string { return s.id }

func (s *Session) Debugf(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s *Session) Infof(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s *Session) Warnf(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s *Session) Errorf(msg string, args ...any) { s.logger.Error(msg, args...) }
