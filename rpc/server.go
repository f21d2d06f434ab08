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

package rpc

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"maps"
	"net"
	"regexp"
	"slices"
	"strconv"
	"sync"
	"time"

	goset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	imetric "github.com/tochemey/tlsrpc/internal/metric"
	"github.com/tochemey/tlsrpc/internal/tcp"
	"github.com/tochemey/tlsrpc/internal/validation"
	"github.com/tochemey/tlsrpc/internal/wire"
	"github.com/tochemey/tlsrpc/log"
	"github.com/tochemey/tlsrpc/secureconn"
	"github.com/tochemey/tlsrpc/verify"
)

const defaultShutdownTimeout = 5 * time.Second

var methodPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// Server serves registered methods over TLS. Every accepted connection
// goes through the admission steps before any request is read:
//
//  1. the TLS handshake completes under the handshake timeout,
//  2. when a policy is configured, the client certificate subject is
//     checked with verify.Verify.
//
// A connection failing either step is logged and closed. An admitted
// connection is served until the client disconnects, goes idle or the
// server stops.
type Server struct {
	config     *ServerConfig
	identity   *secureconn.SecureConn
	server     *tcp.Server
	logger     log.Logger
	metrics    *imetric.ServerMetric
	serializer *wire.Serializer
	framePool  *wire.FramePool
	compressor tcp.ConnWrapper
	paths      goset.Set[string]

	// extractFields reads the subject of a client certificate.
	extractFields func(*x509.Certificate) (*verify.Fields, error)

	cancel context.CancelFunc

	mu      sync.RWMutex
	methods map[string]Handler

	conns   sync.Map
	group   *errgroup.Group
	started *atomic.Bool
	stopped *atomic.Bool
}

// NewServer creates a Server from config. Invalid settings and
// unreadable identity material are reported here.
func NewServer(config *ServerConfig) (*Server, error) {
	if config == nil {
		config = NewServerConfig("127.0.0.1", 0)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("rpc: invalid server config: %w", err)
	}

	identity, err := config.secureConn()
	if err != nil {
		return nil, err
	}

	compressor, err := tcp.NewCompressionWrapper(config.compression)
	if err != nil {
		return nil, err
	}

	meter := config.meter
	if meter == nil {
		meter = imetric.NewProvider().Meter()
	}

	metrics, err := imetric.NewServerMetric(meter)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:        config,
		identity:      identity,
		logger:        config.logger,
		metrics:       metrics,
		serializer:    wire.NewSerializer(),
		framePool:     wire.NewFramePool(),
		compressor:    compressor,
		paths:         goset.NewThreadUnsafeSet(config.paths...),
		extractFields: verify.ExtractFields,
		cancel:        cancel,
		methods:       make(map[string]Handler),
		started:       atomic.NewBool(false),
		stopped:       atomic.NewBool(false),
	}

	s.server, err = tcp.NewServer(config.Address(),
		tcp.WithTLSConfig(identity.SecureServer()),
		tcp.WithListenConfig(config.listenConfig()),
		tcp.WithServerContext(ctx),
		tcp.WithRequestHandler(s.handleConn),
		tcp.WithLoops(config.acceptLoops),
		tcp.WithMaxWorkers(config.maxConcurrentConns),
		tcp.WithMaxAcceptConnections(config.maxAcceptConnections),
		tcp.WithPanicHandler(func(r any) {
			s.logger.Errorf("recovered from panic while serving a connection: %v", r)
		}))
	if err != nil {
		cancel()
		return nil, err
	}

	return s, nil
}

// Register adds the handler of a method. Method names are made of
// letters, digits, dots, dashes and underscores.
func (s *Server) Register(method string, handler Handler) error {
	if err := validation.NewPatternValidator(methodPattern, method,
		fmt.Errorf("%w: %q", ErrInvalidMethodName, method)).Validate(); err != nil {
		return err
	}

	if handler == nil {
		return ErrNilHandler
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.methods[method]; ok {
		return fmt.Errorf("%w: %q", ErrMethodExists, method)
	}
	s.methods[method] = handler
	return nil
}

// RegisterService registers every method of svc.
func (s *Server) RegisterService(svc Service) error {
	methods := svc.Methods()
	var err error
	for _, name := range slices.Sorted(maps.Keys(methods)) {
		err = multierr.Append(err, s.Register(name, methods[name]))
	}
	return err
}

// Methods returns the registered method names in order.
func (s *Server) Methods() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	return s.server.ListenTLS()
}

// Serve accepts connections until the server stops. Listen must be
// called first.
func (s *Server) Serve() error {
	return s.server.Serve()
}

// Start binds the listening socket and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !s.started.CompareAndSwap(false, true) {
		return ErrServerStarted
	}

	if err := s.Listen(); err != nil {
		s.started.Store(false)
		return fmt.Errorf("rpc: failed to listen on %s: %w", s.config.Address(), err)
	}

	s.group = new(errgroup.Group)
	s.group.Go(s.Serve)

	s.logger.Infof("rpc server listening on %s", s.ListenAddr())
	return nil
}

// Stop stops accepting connections and waits for the open ones to finish
// until ctx expires, or for five seconds when ctx has no deadline.
// Connections still open afterwards are closed, including those still in
// their handshake.
func (s *Server) Stop(ctx context.Context) error {
	timeout := defaultShutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = max(time.Until(deadline), time.Millisecond)
	}
	return s.Shutdown(timeout)
}

// Shutdown is Stop with an explicit grace period. A server run through
// Serve rather than Start has its connections closed right away.
func (s *Server) Shutdown(timeout time.Duration) error {
	if s.ListenAddr() == nil {
		return ErrServerNotStarted
	}

	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}

	err := s.server.Shutdown(timeout)
	if s.group != nil {
		err = multierr.Append(err, s.group.Wait())
	}
	s.cancel()
	s.closeConnections()

	s.logger.Infof("rpc server on %s stopped", s.ListenAddr())
	return err
}

// ListenAddr returns the bound address, or nil before Listen.
func (s *Server) ListenAddr() *net.TCPAddr {
	return s.server.ListenAddr()
}

// AdvertisedAddr returns the address clients should dial. An unspecified
// listen IP is replaced by an interface address.
func (s *Server) AdvertisedAddr() (string, error) {
	addr := s.ListenAddr()
	if addr == nil {
		return "", ErrServerNotStarted
	}

	ip, err := tcp.GetBindIP(addr.String())
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(ip, strconv.Itoa(addr.Port)), nil
}

// ActiveConnections returns the number of connections being served,
// admission included.
func (s *Server) ActiveConnections() int32 {
	return s.server.ActiveConnections()
}

// AcceptedConnections returns the number of accepted connections.
func (s *Server) AcceptedConnections() int32 {
	return s.server.AcceptedConnections()
}

// Identity returns the TLS material of the server.
func (s *Server) Identity() *secureconn.SecureConn {
	return s.identity
}

// Policy returns the verification policy.
func (s *Server) Policy() *verify.Policy {
	return s.config.policy
}

func (s *Server) handleConn(conn tcp.Connection) {
	peer := &Peer{
		id:      conn.ID(),
		address: conn.RemoteAddr(),
		local:   conn.ServerAddr(),
		status:  StateAccepted,
	}

	// tracked from accept on so Shutdown reaches pending handshakes
	var session net.Conn = conn.NetConn()
	if tlsConn := conn.TLS(); tlsConn != nil {
		session = tlsConn
	}
	s.conns.Store(conn.ID(), session)
	defer s.conns.Delete(conn.ID())

	logger := s.logger.With("peer", conn.RemoteAddr().String(), "conn_id", conn.ID())
	defer func() {
		if logger.Enabled(log.DebugLevel) {
			logger.Debugf("connection closed after %s", time.Since(conn.StartTime()))
		}
	}()

	if s.stopped.Load() || !s.admit(conn, peer, logger) || s.stopped.Load() {
		return
	}

	s.dispatch(conn, peer, logger)
}

func (s *Server) lookup(method string) (Handler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handler, ok := s.methods[method]
	return handler, ok
}

// closeConnections closes the connections left after the grace period.
// Closing the session unblocks pending handshakes and reads.
func (s *Server) closeConnections() {
	s.conns.Range(func(_, value any) bool {
		_ = value.(net.Conn).Close()
		return true
	})
}

func isClosedConn(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
