// SPDX-License-Identifier: GPL-3.0-or-later

package dnsfwd

import (
	"context"
	"log/slog"
	"net"
)

// maxQuerySize is the buffer used to receive incoming datagrams.
const maxQuerySize = 4096

// Server is the UDP listen loop around a [*Handler]. Each datagram is
// handled in its own goroutine; packets that cannot be answered are
// logged and dropped.
//
// Construct by setting the MANDATORY fields.
type Server struct {
	// Addr is the MANDATORY "host:port" to listen on.
	Addr string

	// Handler is the MANDATORY request handler.
	Handler *Handler

	// Logger OPTIONALLY overrides [slog.Default].
	Logger *slog.Logger
}

// ListenAndServe binds the UDP socket and runs [*Server.Serve] until
// ctx is canceled or reading fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", s.Addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	return s.Serve(ctx, conn)
}

// Serve reads datagrams from conn and replies to each of them. It
// returns ctx.Err when ctx is canceled.
func (s *Server) Serve(ctx context.Context, conn net.PacketConn) error {
	// Unblock the pending read when the caller goes away.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	s.logger().Info("dnsfwd: serving", "addr", conn.LocalAddr().String())
	buffer := make([]byte, maxQuerySize)
	for {
		count, src, err := conn.ReadFrom(buffer)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		packet := make([]byte, count)
		copy(packet, buffer[:count])
		go s.reply(ctx, conn, src, packet)
	}
}

func (s *Server) reply(ctx context.Context, conn net.PacketConn, src net.Addr, packet []byte) {
	resp, err := s.Handler.Handle(ctx, packet)
	if err != nil {
		s.logger().Warn("dnsfwd: dropping packet", "src", src.String(), "err", err.Error())
		return
	}
	if _, err := conn.WriteTo(resp, src); err != nil {
		s.logger().Warn("dnsfwd: cannot send response", "src", src.String(), "err", err.Error())
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
