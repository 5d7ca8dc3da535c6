package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tictactoe-server/internal/usecase"
)

// coordinator is the part of the session core the transport drives.
type coordinator interface {
	HandleJoin(connID, sessionID string)
	HandleMove(connID string, cell int)
	HandleReset(connID string)
	HandleDisconnect(connID string)
}

type Server struct {
	logger      *slog.Logger
	coordinator coordinator
	conns       *connectionManager
	upgrader    websocket.Upgrader

	handlers map[string]func(connID string, message *Message) error
}

func New(logger *slog.Logger, coordinator coordinator) *Server {
	server := &Server{
		logger:      logger,
		coordinator: coordinator,
		conns:       newConnectionManager(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		handlers: make(map[string]func(string, *Message) error),
	}

	server.handlers["game:join"] = server.handleJoin
	server.handlers["game:move"] = server.handleMove
	server.handlers["game:reset"] = server.handleReset

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.handleUpgrade)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Send - delivers an event to a single connection. Events addressed to
// connections that are gone are dropped.
func (that *Server) Send(connID string, event usecase.Event) error {
	conn, ok := that.conns.get(connID)
	if !ok {
		return nil
	}

	if err := conn.writeJSON(event); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// handleUpgrade - upgrades the connection and reads messages until it
// closes. Every connection gets a fresh opaque id; a reconnecting
// client is just a new connection.
func (that *Server) handleUpgrade(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleUpgrade")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	connID := uuid.New().String()
	that.conns.add(connID, conn)

	log.Info("WebSocket connection established", "connID", connID)

	that.readLoop(connID, conn)
}

// readLoop - processes messages from the client.
func (that *Server) readLoop(connID string, conn *websocket.Conn) {
	log := that.logger.With("method", "readLoop", "connID", connID)

	defer func() {
		that.conns.remove(connID)
		that.coordinator.HandleDisconnect(connID)
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Info("connection closed", "error", err)
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			continue
		}

		if err = handler(connID, &message); err != nil {
			log.Error("error processing message", "error", err)
		}
	}
}
