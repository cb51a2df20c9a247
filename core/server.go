package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultIOTimeout        = 5 * time.Second
	defaultBroadcastTimeout = 2 * time.Minute
)

// StatusProvider reports the service status for the admin socket.
type StatusProvider interface {
	Status() Status
}

// Broadcaster delivers an announcement to every player who opted in to
// reminders and returns how many chats received it. id is carried on every
// per-chat notification.
type Broadcaster interface {
	Broadcast(ctx context.Context, id, text, source string) (int, error)
}

// Server is the local admin socket. It listens on a Unix domain socket and
// answers status and notify requests.
type Server struct {
	socketPath  string
	status      StatusProvider
	broadcaster Broadcaster
	listener    net.Listener
	wg          sync.WaitGroup
	logger      *slog.Logger

	// ioTimeout bounds reading the request and writing the response.
	// broadcastTimeout bounds the fan-out between the two.
	ioTimeout        time.Duration
	broadcastTimeout time.Duration
}

// NewServer creates a new admin socket server. broadcaster may be nil, in
// which case notify requests are refused.
func NewServer(socketPath string, status StatusProvider, broadcaster Broadcaster, logger *slog.Logger) *Server {
	return &Server{
		socketPath:  socketPath,
		status:      status,
		broadcaster: broadcaster,
		logger:      logger,

		ioTimeout:        defaultIOTimeout,
		broadcastTimeout: defaultBroadcastTimeout,
	}
}

// Start begins listening. It cleans up stale sockets, creates the directory
// with 0700 permissions, and sets the socket to 0600.
func (s *Server) Start(ctx context.Context) error {
	dir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}

	// Clean up stale socket.
	if _, err := os.Stat(s.socketPath); err == nil {
		// Check if something is listening.
		conn, err := net.DialTimeout("unix", s.socketPath, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return fmt.Errorf("another instance is already listening on %s", s.socketPath)
		}
		s.logger.Info("removing stale socket", "path", s.socketPath)
		if err := os.Remove(s.socketPath); err != nil {
			return fmt.Errorf("remove stale socket: %w", err)
		}
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		ln.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	s.listener = ln
	s.logger.Info("listening", "path", s.socketPath)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()

	return nil
}

// Shutdown gracefully stops the server and waits for in-flight connections.
func (s *Server) Shutdown() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Error("accept error", "error", err)
				return
			}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(s.ioTimeout))

	data, err := io.ReadAll(io.LimitReader(conn, MaxPayloadBytes+1))
	if err != nil {
		s.writeResponse(conn, Response{OK: false, Error: "read error"})
		return
	}

	if len(data) > MaxPayloadBytes {
		s.writeResponse(conn, Response{OK: false, Error: fmt.Sprintf("payload exceeds %d byte limit", MaxPayloadBytes)})
		return
	}

	req, err := ValidateRequest(data)
	if err != nil {
		s.logger.Warn("invalid request", "error", err)
		s.writeResponse(conn, Response{OK: false, Error: err.Error()})
		return
	}

	switch req.Action {
	case ActionStatus:
		st := s.status.Status()
		s.writeResponse(conn, Response{OK: true, Status: &st})
	case ActionNotify:
		s.handleNotify(ctx, conn, req)
	default:
		s.writeResponse(conn, Response{OK: false, Error: fmt.Sprintf("unknown action %q", req.Action)})
	}
}

func (s *Server) handleNotify(ctx context.Context, conn net.Conn, req *Request) {
	payload, err := ParseNotifyPayload(req.Payload)
	if err != nil {
		s.writeResponse(conn, Response{OK: false, Error: err.Error()})
		return
	}

	if s.broadcaster == nil {
		s.writeResponse(conn, Response{OK: false, Error: "broadcast not configured"})
		return
	}

	id := uuid.New().String()
	source := payload.Source
	if source == "" {
		source = "admin"
	}

	bctx, cancel := context.WithTimeout(ctx, s.broadcastTimeout)
	defer cancel()

	sent, err := s.broadcaster.Broadcast(bctx, id, payload.Text, source)
	if err != nil {
		s.logger.Error("broadcast failed", "id", id, "sent", sent, "error", err)
		s.writeResponse(conn, Response{OK: false, ID: id, Sent: sent, Error: "delivery failed"})
		return
	}

	s.logger.Info("broadcast sent", "id", id, "sent", sent, "source", source)
	s.writeResponse(conn, Response{OK: true, ID: id, Sent: sent})
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	conn.SetWriteDeadline(time.Now().Add(s.ioTimeout))
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger.Warn("write response failed", "id", resp.ID, "error", err)
	}
}
