package app

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/bft-labs/ringsock/internal/domain"
	"github.com/bft-labs/ringsock/internal/metrics"
	"github.com/bft-labs/ringsock/pkg/log"
)

const (
	// DefaultReadBufferBytes is the size of a single socket read.
	DefaultReadBufferBytes = 1024

	// DefaultMaxRecordBytes bounds one record, delimiter included.
	DefaultMaxRecordBytes = 1 << 20

	replyBufferBytes = 4096
)

// SessionConfig contains per-connection settings.
type SessionConfig struct {
	ReadBufferBytes int
	MaxRecordBytes  int
	WriteTimeout    time.Duration

	// CursorMode returns the cursor mode to apply after each reply.
	// It is read on every reply so the mode can change at runtime.
	CursorMode func() domain.CursorMode
}

// SessionStats summarizes one connection.
type SessionStats struct {
	BytesReceived int64
	BytesSent     int64
	Records       int
	Seeks         int
	Rejected      int
}

// Session serves one client connection.
type Session struct {
	conn    net.Conn
	coord   *Coordinator
	cfg     SessionConfig
	logger  log.Logger
	metrics *metrics.Metrics

	framer *Framer
	cursor domain.Cursor
	stats  SessionStats
}

// NewSession creates a session for conn. Zero config values take defaults.
func NewSession(conn net.Conn, coord *Coordinator, cfg SessionConfig, logger log.Logger, m *metrics.Metrics) *Session {
	if cfg.ReadBufferBytes <= 0 {
		cfg.ReadBufferBytes = DefaultReadBufferBytes
	}
	if cfg.MaxRecordBytes < 0 {
		cfg.MaxRecordBytes = 0
	}
	if cfg.CursorMode == nil {
		cfg.CursorMode = func() domain.CursorMode { return domain.CursorPersist }
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Session{
		conn:    conn,
		coord:   coord,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		framer:  NewFramer(cfg.MaxRecordBytes),
	}
}

// Stats returns the connection counters so far.
func (s *Session) Stats() SessionStats {
	return s.stats
}

// Cursor returns the current read position.
func (s *Session) Cursor() domain.Cursor {
	return s.cursor
}

// Serve reads and handles records until the peer disconnects, the
// connection fails, or ctx is canceled. A clean end of stream and a
// connection closed locally both return nil.
func (s *Session) Serve(ctx context.Context) error {
	buf := make([]byte, s.cfg.ReadBufferBytes)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.stats.BytesReceived += int64(n)
			s.metrics.Received(n)
			if ferr := s.framer.Feed(buf[:n], func(record []byte) error {
				return s.handle(ctx, record)
			}); ferr != nil {
				return s.settle(ctx, ferr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if p := s.framer.Pending(); p > 0 {
					s.logger.Debug("dropping unterminated record", log.Int("bytes", p))
				}
				return nil
			}
			return s.settle(ctx, err)
		}
	}
}

// settle maps errors caused by shutdown to nil.
func (s *Session) settle(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, net.ErrClosed) || errors.Is(err, domain.ErrClosed) {
		return nil
	}
	return err
}

// handle processes one record and replies inside a single critical section.
func (s *Session) handle(ctx context.Context, record []byte) error {
	return s.coord.WithExclusiveAccess(ctx, func(tx *Tx) error {
		if domain.IsControl(record) {
			s.seek(tx, record)
		} else if err := s.commit(tx, record); err != nil {
			return err
		}
		return s.reply(tx)
	})
}

func (s *Session) seek(tx *Tx, record []byte) {
	s.stats.Seeks++

	cmd, err := domain.ParseSeek(record)
	if err != nil {
		s.stats.Rejected++
		s.metrics.Seek(metrics.SeekMalformed)
		s.logger.Debug("seek ignored", log.Err(err))
		return
	}
	off, err := tx.Resolve(cmd)
	if err != nil {
		s.stats.Rejected++
		s.metrics.Seek(metrics.SeekOutOfRange)
		s.logger.Debug("seek ignored",
			log.Int64("entry", cmd.Entry),
			log.Int64("offset", cmd.Offset),
			log.Err(err),
		)
		return
	}

	s.cursor = domain.Cursor{Set: true, Offset: off}
	s.metrics.Seek(metrics.SeekResolved)
}

func (s *Session) commit(tx *Tx, record []byte) error {
	e, err := domain.NewEntry(record)
	if err != nil {
		return err
	}
	evicted, ok, err := tx.Commit(e)
	if err != nil {
		return err
	}
	s.stats.Records++
	s.metrics.RecordCommitted(ok, tx.Store.Len(), tx.Store.Size())
	if ok {
		s.logger.Debug("entry evicted", log.Int("size", evicted.Size()))
	}
	return nil
}

func (s *Session) reply(tx *Tx) error {
	start := time.Now()
	if s.cfg.WriteTimeout > 0 {
		if err := s.conn.SetWriteDeadline(start.Add(s.cfg.WriteTimeout)); err != nil {
			return err
		}
		defer func() { _ = s.conn.SetWriteDeadline(time.Time{}) }()
	}

	w := bufio.NewWriterSize(s.conn, replyBufferBytes)
	n, err := tx.Reply(w, s.cursor.Start())
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		return err
	}

	s.stats.BytesSent += n
	s.metrics.Sent(n)
	s.metrics.ObserveReply(time.Since(start))

	if s.cursor.Set && s.cfg.CursorMode() == domain.CursorOnce {
		s.cursor = domain.Cursor{}
	}
	return nil
}
