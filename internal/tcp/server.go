// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package tcp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// RequestHandlerFunc is the callback invoked for every accepted connection.
// The implementation owns the Connection for the duration of the call;
// once it returns the connection is closed automatically.
type RequestHandlerFunc func(conn Connection)

// ServerOption configures a Server before it is started.
type ServerOption func(*Server)

// Server is a multi-loop TCP server. It listens on a single address and
// dispatches accepted connections to a WorkerPool.
//
// When TLS is enabled every accepted socket is wrapped in its own server
// side *tls.Conn before it reaches the request handler. The handshake is
// not driven here: the handler decides when it runs through
// Connection.Handshake, or lets the first read trigger it.
//
// Create a Server with NewServer, then call Listen (or ListenTLS)
// followed by Serve.
type Server struct {
	listenAddr        *net.TCPAddr
	listener          *net.TCPListener
	requestHandler    RequestHandlerFunc
	ctx               context.Context
	tlsConfig         *tls.Config
	listenConfig      *ListenConfig
	connWaitGroup     sync.WaitGroup
	connStructPool    sync.Pool
	wp                *WorkerPool[net.Conn]
	maxWorkers        int
	panicHandler      func(any)
	shutdownTimeout   atomic.Int64
	activeConnections atomic.Int32
	acceptedConns     atomic.Int32
	maxAcceptConns    atomic.Int32
	shutdown          atomic.Bool
	loops             int
	tlsEnabled        bool
}

// NewServer creates a Server bound to the given address (host:port).
//
// Defaults: 4 accept loops, SO_REUSEPORT enabled, no TLS and a handler
// that does nothing.
func NewServer(listenAddr string, opts ...ServerOption) (*Server, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving address %q: %w", listenAddr, err)
	}

	s := &Server{
		listenAddr:     tcpAddr,
		listenConfig:   &ListenConfig{SocketReusePort: true},
		loops:          4,
		requestHandler: func(Connection) {},
		connStructPool: sync.Pool{
			New: func() any { return &TCPConn{} },
		},
	}

	for _, o := range opts {
		o(s)
	}

	return s, nil
}

// WithTLSConfig sets the TLS configuration used when TLS is enabled.
func WithTLSConfig(config *tls.Config) ServerOption {
	return func(s *Server) { s.tlsConfig = config }
}

// WithListenConfig overrides the default ListenConfig used to create
// the listening socket.
func WithListenConfig(config *ListenConfig) ServerOption {
	return func(s *Server) {
		if config != nil {
			s.listenConfig = config
		}
	}
}

// WithRequestHandler sets the callback invoked for every accepted connection.
func WithRequestHandler(f RequestHandlerFunc) ServerOption {
	return func(s *Server) { s.requestHandler = f }
}

// WithServerContext sets the base context returned by Server.Context.
func WithServerContext(ctx context.Context) ServerOption {
	return func(s *Server) { s.ctx = ctx }
}

// WithLoops sets the number of concurrent accept loops. Values less than
// 1 are clamped to 1.
func WithLoops(loops int) ServerOption {
	return func(s *Server) {
		if loops < 1 {
			loops = 1
		}
		s.loops = loops
	}
}

// WithMaxWorkers caps the number of connections served concurrently.
// Zero (the default) means no cap.
func WithMaxWorkers(n int) ServerOption {
	return func(s *Server) { s.maxWorkers = n }
}

// WithPanicHandler sets the function called with the value recovered
// from a panicking request handler. The connection is closed either way.
func WithPanicHandler(f func(any)) ServerOption {
	return func(s *Server) { s.panicHandler = f }
}

// WithMaxAcceptConnections sets the maximum number of connections the
// server will accept in total. Zero (the default) means unlimited.
// Once the limit is reached the server initiates a graceful shutdown.
func WithMaxAcceptConnections(limit int32) ServerOption {
	return func(s *Server) { s.maxAcceptConns.Store(limit) }
}

// TLSConfig returns the TLS configuration, or nil if none was set.
func (s *Server) TLSConfig() *tls.Config {
	return s.tlsConfig
}

// ListenConfig returns the ListenConfig used to create the listening socket.
func (s *Server) ListenConfig() *ListenConfig {
	return s.listenConfig
}

// Context returns the server's base context. If none was set via
// WithServerContext, context.Background is returned.
func (s *Server) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// Loops returns the number of accept loops configured for this server.
func (s *Server) Loops() int {
	return s.loops
}

// ActiveConnections returns the number of connections currently being
// served.
func (s *Server) ActiveConnections() int32 {
	return s.activeConnections.Load()
}

// AcceptedConnections returns the total number of connections accepted
// since the server started.
func (s *Server) AcceptedConnections() int32 {
	return s.acceptedConns.Load()
}

// ListenAddr returns the actual address the server is listening on,
// which is useful when the server was started on port 0. Returns nil if
// the server has not started listening.
func (s *Server) ListenAddr() *net.TCPAddr {
	if s.listener == nil {
		return nil
	}
	addr, _ := s.listener.Addr().(*net.TCPAddr)
	return addr
}

// EnableTLS marks the server to wrap every accepted connection with TLS.
// Returns ErrNoTLSConfig if no TLS configuration has been set.
func (s *Server) EnableTLS() error {
	if s.tlsConfig == nil {
		return ErrNoTLSConfig
	}
	s.tlsEnabled = true
	return nil
}

// Listen creates the TCP listener. Call Serve afterwards to start
// accepting connections.
func (s *Server) Listen() error {
	network := "tcp4"
	if IsIPv6Addr(s.listenAddr) {
		network = "tcp6"
	}

	s.listenConfig.underlying.Control = applyListenSocketOptions(s.listenConfig)

	listener, err := s.listenConfig.underlying.Listen(s.Context(), network, s.listenAddr.String())
	if err != nil {
		return err
	}

	tcpListener, ok := listener.(*net.TCPListener)
	if !ok {
		return errors.Join(listener.Close(), ErrInvalidListener)
	}
	s.listener = tcpListener
	return nil
}

// ListenTLS calls EnableTLS followed by Listen.
func (s *Server) ListenTLS() error {
	if err := s.EnableTLS(); err != nil {
		return err
	}
	return s.Listen()
}

// Serve starts the accept loops and blocks until all loops return and,
// depending on the shutdown timeout, in-flight connections complete.
// Use Shutdown or Halt from another goroutine to stop the server.
func (s *Server) Serve() error {
	if s.listener == nil {
		return ErrNoListener
	}

	s.wp = NewWorkerPool(s.serveConn)
	s.wp.SetMaxWorkers(s.maxWorkers)
	s.wp.Start()
	defer s.wp.Stop()

	eg := new(errgroup.Group)
	for range s.loops {
		eg.Go(s.acceptLoop)
	}

	if err := eg.Wait(); err != nil {
		// one loop failed: stop the others before returning
		_ = s.Halt()
		return err
	}

	return s.awaitConnections()
}

// Shutdown gracefully stops the server. The behaviour depends on d:
//   - d > 0: Serve waits up to d for in-flight connections to finish.
//   - d == 0: Serve waits indefinitely.
//   - d < 0: Serve returns without waiting.
//
// Shutdown is idempotent; subsequent calls are no-ops.
func (s *Server) Shutdown(d time.Duration) error {
	if !s.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	s.shutdownTimeout.Store(int64(d))
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// Halt stops the server without waiting for in-flight connections.
// It is equivalent to Shutdown(-1).
func (s *Server) Halt() error {
	return s.Shutdown(-1 * time.Second)
}

func (s *Server) acceptLoop() error {
	for {
		if s.shutdown.Load() {
			return nil
		}

		tcpConn, err := s.listener.AcceptTCP()
		if err != nil {
			// Shutdown may have closed the listener.
			if s.shutdown.Load() {
				return nil
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}

			return err
		}

		newCount := s.acceptedConns.Add(1)
		limit := s.maxAcceptConns.Load()

		if limit > 0 && newCount > limit {
			s.acceptedConns.Add(-1)
			_ = tcpConn.Close()
			// signal shutdown only on the first breach
			if newCount == limit+1 {
				_ = s.Shutdown(0)
			}
			continue
		}

		s.connWaitGroup.Add(1)
		if err := s.wp.AddTask(tcpConn); err != nil {
			s.connWaitGroup.Done()
			s.acceptedConns.Add(-1)
			_ = tcpConn.Close()
		}
	}
}

func (s *Server) serveConn(netConn net.Conn) {
	s.activeConnections.Add(1)

	conn := s.connStructPool.Get().(Connection)
	defer func() {
		if r := recover(); r != nil && s.panicHandler != nil {
			s.panicHandler(r)
		}
		_ = conn.Close()
		conn.Reset(nil)
		s.connStructPool.Put(conn)
		s.activeConnections.Add(-1)
		s.connWaitGroup.Done()
	}()

	if s.tlsEnabled {
		netConn = tls.Server(netConn, s.tlsConfig)
	}

	conn.Reset(netConn)
	conn.Start()
	s.requestHandler(conn)
}

func (s *Server) awaitConnections() error {
	timeout := time.Duration(s.shutdownTimeout.Load())
	if timeout < 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.connWaitGroup.Wait()
		close(done)
	}()

	if timeout == 0 {
		<-done
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
	}
	return nil
}
