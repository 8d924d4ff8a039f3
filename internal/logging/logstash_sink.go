package logging

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

var errSinkCoolingDown = errors.New("logstash: waiting before reconnect")

// LogstashSink forwards newline-delimited JSON entries to a Logstash TCP input. Entries are
// dropped while the input is unreachable so logging never blocks a request.
type LogstashSink struct {
	addr          string
	dialTimeout   time.Duration
	writeTimeout  time.Duration
	retryInterval time.Duration

	mu        sync.Mutex
	conn      net.Conn
	nextRetry time.Time
	closed    bool
	dropped   uint64
}

type SinkOption func(*LogstashSink)

func WithDialTimeout(d time.Duration) SinkOption {
	return func(s *LogstashSink) { s.dialTimeout = d }
}

func WithWriteTimeout(d time.Duration) SinkOption {
	return func(s *LogstashSink) { s.writeTimeout = d }
}

// WithRetryInterval sets how long the sink stays disconnected after a failed dial or write.
func WithRetryInterval(d time.Duration) SinkOption {
	return func(s *LogstashSink) { s.retryInterval = d }
}

func NewLogstashSink(addr string, opts ...SinkOption) (*LogstashSink, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("logstash: empty address")
	}
	s := &LogstashSink{
		addr:          addr,
		dialTimeout:   2 * time.Second,
		writeTimeout:  time.Second,
		retryInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *LogstashSink) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	line := make([]byte, len(p), len(p)+1)
	copy(line, p)
	if line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, io.ErrClosedPipe
	}
	if err := s.connectLocked(); err != nil {
		s.dropped++
		return len(p), nil
	}
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if _, err := s.conn.Write(line); err != nil {
		s.dropped++
		s.disconnectLocked()
		s.backoffLocked()
	}
	return len(p), nil
}

// Sync satisfies zapcore.WriteSyncer; entries are written unbuffered.
func (s *LogstashSink) Sync() error {
	return nil
}

// Dropped reports how many entries were discarded while Logstash was unreachable.
func (s *LogstashSink) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *LogstashSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.disconnectLocked()
}

func (s *LogstashSink) connectLocked() error {
	if s.conn != nil {
		return nil
	}
	if !s.nextRetry.IsZero() && time.Now().Before(s.nextRetry) {
		return errSinkCoolingDown
	}
	conn, err := net.DialTimeout("tcp", s.addr, s.dialTimeout)
	if err != nil {
		s.backoffLocked()
		return err
	}
	s.conn = conn
	s.nextRetry = time.Time{}
	return nil
}

func (s *LogstashSink) disconnectLocked() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *LogstashSink) backoffLocked() {
	if s.retryInterval <= 0 {
		s.nextRetry = time.Time{}
		return
	}
	s.nextRetry = time.Now().Add(s.retryInterval)
}
