// Package server implements the newline-delimited text protocol in front of
// the order book:
//
//	ORDER <buy|sell> <price> <qty> <client>
//	CANCEL <order_id>
//	SNAPSHOT <depth>
//
// Each connection is served by its own goroutine; commands on a connection
// are processed one at a time, to completion, and replies are written back
// newline-terminated in command-arrival order.
package server

import (
	"context"
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/tickforge/limitbook"
)

// Config holds the server settings.
type Config struct {
	// Addr is the TCP listen address, e.g. ":9001".
	Addr string

	// MaxSnapshotDepth caps the depth argument of SNAPSHOT commands.
	MaxSnapshotDepth uint32
}

// Server accepts TCP connections and feeds parsed commands into the book.
type Server struct {
	cfg    Config
	book   *limitbook.OrderBook
	logger *zap.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// New creates a server bound to the given book. A nil logger disables
// logging.
func New(cfg Config, book *limitbook.OrderBook, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxSnapshotDepth == 0 {
		cfg.MaxSnapshotDepth = 50
	}
	return &Server{
		cfg:    cfg,
		book:   book,
		logger: logger,
	}
}

// ListenAndServe runs the accept loop until ctx is cancelled. It returns nil
// on graceful shutdown after all live sessions have finished.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("listening", zap.String("addr", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				s.logger.Info("server stopped")
				return nil
			}
			return err
		}

		sess := newSession(conn, s.book, s.cfg.MaxSnapshotDepth, s.logger)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.serve()
		}()
	}
}

// Addr returns the bound listen address, or nil before ListenAndServe has
// bound the listener. Useful for tests that listen on port 0.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}
