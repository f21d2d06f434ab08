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
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/tochemey/tlsrpc/internal/tcp"
	"github.com/tochemey/tlsrpc/internal/wire"
	"github.com/tochemey/tlsrpc/log"
)

// dispatch reads request frames from an admitted connection and writes
// the responses back, one call at a time. It returns when the connection
// fails or a frame cannot be decoded.
func (s *Server) dispatch(conn tcp.Connection, peer *Peer, logger log.Logger) {
	ctx := contextWithPeer(s.server.Context(), peer)

	for {
		if s.config.idleTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(s.config.idleTimeout)); err != nil {
				return
			}
		}

		frame, err := wire.ReadFrame(conn, s.framePool, s.config.maxFrameSize)
		if err != nil {
			s.readFailed(conn, peer, logger, err)
			return
		}

		if peer.status == StateAccepted {
			// lazy handshake completed with the first frame
			peer.state = conn.TLS().ConnectionState()
			peer.fields = subjectFields(peer)
			peer.status = StateVerified
			s.metrics.RecordConnection(ctx, outcomeAccepted)
		}

		request, md, typeName, err := s.serializer.Unmarshal(frame)
		s.framePool.Put(frame)
		if err != nil {
			logger.With("error", err).Warn("closing connection after a malformed frame")
			return
		}

		// legacy frames carry no headers and are routed by message type
		path, method := "/", string(typeName)
		if md != nil {
			method, _ = md.Get(wire.MethodHeader)
			if value, ok := md.Get(wire.PathHeader); ok {
				path = value
			}
		}

		response, respMD := s.invoke(ctx, peer, logger, path, method, request, md)
		if _, oneway := md.Get(wire.OnewayHeader); oneway {
			continue
		}

		out, err := s.serializer.Marshal(response, respMD)
		if err != nil {
			logger.With("method", method, "error", err).Error("failed to encode response")
			out, err = s.serializer.Marshal(&emptypb.Empty{}, statusMetadata(StatusInternal, "failed to encode response"))
			if err != nil {
				return
			}
		}

		if s.config.idleTimeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(s.config.idleTimeout)); err != nil {
				return
			}
		}

		if err := wire.WriteFrame(conn, out); err != nil {
			logger.With("error", err).Warn("failed to write response")
			return
		}
	}
}

// invoke runs the handler of a request and builds the response. It never
// returns a nil message.
func (s *Server) invoke(ctx context.Context, peer *Peer, logger log.Logger, path, method string, request proto.Message, md *wire.Metadata) (proto.Message, *wire.Metadata) {
	if !s.paths.Contains(path) {
		return s.fail(ctx, StatusNotFound, fmt.Sprintf("path '%s' is not served", path))
	}

	handler, ok := s.lookup(method)
	if !ok {
		return s.fail(ctx, StatusUnimplemented, fmt.Sprintf("method '%s' is not implemented", method))
	}

	if md != nil {
		var cancel context.CancelFunc
		ctx, cancel = md.ToContext(ctx)
		defer cancel()
	}

	response, panicked, err := call(ctx, handler, peer, request)
	switch {
	case panicked != nil:
		logger.With("method", method).Errorf("recovered from panic in handler: %v", panicked)
		return s.fail(ctx, StatusInternal, "internal error")
	case err != nil:
		return s.fail(ctx, StatusError, err.Error())
	}

	if response == nil {
		response = &emptypb.Empty{}
	}
	s.metrics.RecordRequest(ctx, StatusOK.String())
	return response, statusMetadata(StatusOK, "")
}

func (s *Server) fail(ctx context.Context, status Status, message string) (proto.Message, *wire.Metadata) {
	s.metrics.RecordRequest(ctx, status.String())
	return &emptypb.Empty{}, statusMetadata(status, message)
}

func call(ctx context.Context, handler Handler, peer *Peer, request proto.Message) (response proto.Message, panicked any, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicked = r
		}
	}()
	response, err = handler(ctx, peer, request)
	return response, nil, err
}

// readFailed logs why a connection stopped. A clean end of stream or an
// idle timeout is not worth a log line.
func (s *Server) readFailed(conn tcp.Connection, peer *Peer, logger log.Logger, err error) {
	if peer.status == StateAccepted && !conn.TLS().ConnectionState().HandshakeComplete {
		peer.status = StateRejected
		logger.With("error", err).Warn("TLS handshake failed")
		s.metrics.RecordConnection(s.server.Context(), outcomeHandshakeFailed)
		return
	}

	var timeout interface{ Timeout() bool }
	switch {
	case errors.Is(err, io.EOF), isClosedConn(err):
	case errors.As(err, &timeout) && timeout.Timeout():
		logger.Debug("closing idle connection")
	case tcp.IsRaggedEOF(err):
		logger.Warn("peer closed the connection without a TLS close_notify")
	default:
		logger.With("error", err).Warn("failed to read request")
	}
}

func statusMetadata(status Status, message string) *wire.Metadata {
	md := wire.NewMetadata()
	md.Set(wire.StatusHeader, status.String())
	if message != "" {
		md.Set(wire.ErrorHeader, message)
	}
	return md
}
