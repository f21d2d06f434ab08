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
	"fmt"
	"time"

	"github.com/tochemey/tlsrpc/internal/tcp"
	"github.com/tochemey/tlsrpc/log"
	"github.com/tochemey/tlsrpc/verify"
)

// connection outcomes reported by the tlsrpc.connections counter
const (
	outcomeAccepted          = "accepted"
	outcomeHandshakeFailed   = "handshake_failed"
	outcomeRejected          = "rejected"
	outcomeVerificationError = "verification_error"
)

// admit moves conn from ACCEPTED to VERIFIED or REJECTED. It reports
// whether the connection may be served; a rejected connection is closed
// by the caller.
//
// In lazy mode without a policy the handshake is left to the first read
// and admit returns with the peer still ACCEPTED.
func (s *Server) admit(conn tcp.Connection, peer *Peer, logger log.Logger) bool {
	ctx := s.server.Context()
	policy := s.config.policy

	if s.config.handshakeOnConnect || !policy.IsEmpty() {
		start := time.Now()
		if err := s.handshake(ctx, conn); err != nil {
			peer.status = StateRejected
			logger.With("error", err).Warn("TLS handshake failed")
			s.metrics.RecordConnection(ctx, outcomeHandshakeFailed)
			return false
		}
		s.metrics.RecordHandshake(ctx, time.Since(start))
		peer.status = StateHandshaken
		peer.state = conn.TLS().ConnectionState()
	}

	if policy.IsEmpty() {
		if peer.status == StateHandshaken {
			peer.fields = subjectFields(peer)
			peer.status = StateVerified
			s.metrics.RecordConnection(ctx, outcomeAccepted)
		}
		return s.prepare(conn, peer, logger)
	}

	fields, result, err := s.verifyPeer(peer, logger)
	switch {
	case err != nil:
		peer.status = StateRejected
		logger.With("subject", peerSubject(peer), "error", err).Error("verification error")
		s.metrics.RecordConnection(ctx, outcomeVerificationError)
		return false
	case !result.IsAccepted():
		peer.status = StateRejected
		logger.With("outcome", result.Outcome().String(), "field", result.Field()).Error(result.Reason())
		s.metrics.RecordConnection(ctx, outcomeRejected)
		return false
	}

	peer.fields = fields
	peer.status = StateVerified
	s.metrics.RecordConnection(ctx, outcomeAccepted)
	return s.prepare(conn, peer, logger)
}

func (s *Server) handshake(ctx context.Context, conn tcp.Connection) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.handshakeTimeout)
	defer cancel()
	return conn.Handshake(ctx)
}

// verifyPeer extracts the subject fields of the client certificate and
// evaluates the policy. A panic is turned into an error. Whenever err is
// set the result is a rejection with outcome verify.OutcomeError.
func (s *Server) verifyPeer(peer *Peer, logger log.Logger) (fields *verify.Fields, result verify.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while verifying peer: %v", r)
			fields, result = nil, verify.Failed(err)
		}
	}()

	if leaf := leafCertificate(peer); leaf != nil {
		if logger.Enabled(log.DebugLevel) {
			logger.Debugf("verifying peer certificate subject='%s' issuer='%s'", leaf.Subject, leaf.Issuer)
		}

		fields, err = s.extractFields(leaf)
		if err != nil {
			return nil, verify.Failed(err), err
		}
	}

	return fields, verify.Verify(fields, s.config.policy), nil
}

// prepare layers the ragged EOF handling and the compression over an
// admitted connection.
func (s *Server) prepare(conn tcp.Connection, peer *Peer, logger log.Logger) bool {
	if s.config.suppressRaggedEOFs {
		if err := conn.Wrap(tcp.RaggedEOFWrapper{}); err != nil {
			logger.With("error", err).Error("failed to wrap connection")
			return false
		}
	}

	if s.compressor != nil {
		if err := conn.Wrap(s.compressor); err != nil {
			logger.With("error", err).Error("failed to enable compression")
			return false
		}
	}

	if peer.status == StateVerified {
		logger.Debugf("peer admitted, fields='%s'", peer.fields)
	}
	return true
}

func leafCertificate(peer *Peer) *x509.Certificate {
	if certs := peer.state.PeerCertificates; len(certs) > 0 {
		return certs[0]
	}
	return nil
}

// subjectFields returns the fields of the client certificate without
// judging them, or nil when there is none to read.
func subjectFields(peer *Peer) *verify.Fields {
	fields, err := verify.ExtractFields(leafCertificate(peer))
	if err != nil {
		return nil
	}
	return fields
}

func peerSubject(peer *Peer) string {
	if leaf := leafCertificate(peer); leaf != nil {
		return leaf.Subject.String()
	}
	return "<none>"
}
