package api

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/home-manager/backend/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// WebSocket message types for the editor protocol
const (
	// Client -> Server messages
	MsgTypeInput  = "input"
	MsgTypeReload = "reload"
	MsgTypeFrame  = "frame"
	MsgTypePing   = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeEvent     = "event"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
	MsgTypeClosed    = "closed"
)

const wsWriteTimeout = 10 * time.Second

// WSMessage is the envelope of every WebSocket message. With
// ?encoding=msgpack messages are binary MessagePack instead of JSON text.
type WSMessage struct {
	Type      string      `json:"type" msgpack:"type"`
	ID        string      `json:"id,omitempty" msgpack:"id,omitempty"`
	Payload   interface{} `json:"payload,omitempty" msgpack:"payload,omitempty"`
	Timestamp int64       `json:"timestamp" msgpack:"timestamp"`
}

// wsRequest is a decoded client message.
type wsRequest struct {
	Type    string     `json:"type" msgpack:"type"`
	ID      string     `json:"id,omitempty" msgpack:"id,omitempty"`
	Payload inputBatch `json:"payload" msgpack:"payload"`
}

// WebSocket error response
type WSErrorResponse struct {
	Message string `json:"message" msgpack:"message"`
	Code    string `json:"code,omitempty" msgpack:"code,omitempty"`
}

type wsCodec struct {
	messageType int
	marshal     func(v interface{}) ([]byte, error)
	unmarshal   func(data []byte, v interface{}) error
}

var (
	jsonCodec    = wsCodec{websocket.TextMessage, json.Marshal, json.Unmarshal}
	msgpackCodec = wsCodec{websocket.BinaryMessage, msgpack.Marshal, msgpack.Unmarshal}
)

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	ws    *websocket.Conn
	codec wsCodec
	mu    sync.Mutex
	log   zerolog.Logger
}

func (c *wsConn) send(msg WSMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	data, err := c.codec.marshal(msg)
	if err != nil {
		c.log.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode WebSocket message")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := c.ws.WriteMessage(c.codec.messageType, data); err != nil {
		c.log.Debug().Err(err).Str("type", msg.Type).Msg("WebSocket write failed")
	}
}

func (c *wsConn) sendError(id, message, code string) {
	c.send(WSMessage{
		Type:    MsgTypeError,
		ID:      id,
		Payload: WSErrorResponse{Message: message, Code: code},
	})
}

func (c *wsConn) sendAPIError(id string, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if apiErr.Details != "" {
			msg += ": " + apiErr.Details
		}
		c.sendError(id, msg, apiErr.Code)
		return
	}
	c.sendError(id, err.Error(), "INTERNAL_ERROR")
}

// HandleWebSocket upgrades to a WebSocket that carries editor input and
// streams frames, notices and commit results for one session
func (h *EditorHandlerImpl) HandleWebSocket(c echo.Context) error {
	id := c.Param("id")
	sess, ok := h.editors.Get(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	codec := jsonCodec
	if c.QueryParam("encoding") == "msgpack" {
		codec = msgpackCodec
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	ws.SetReadLimit(h.maxMsg)

	conn := &wsConn{ws: ws, codec: codec, log: h.log.With().Str("session", shortID(id)).Logger()}
	conn.log.Info().Str("remote", c.RealIP()).Msg("Editor client connected")

	events, cancel, err := h.editors.Subscribe(id)
	if err != nil {
		conn.sendAPIError("", mapError(err, "session", id, "failed to subscribe"))
		return nil
	}
	defer cancel()

	frame, err := h.editors.Frame(id)
	if err != nil {
		conn.sendAPIError("", mapError(err, "session", id, "failed to render editor"))
		return nil
	}
	conn.send(WSMessage{Type: MsgTypeConnected, Payload: editorResponse{Session: sess, Frame: frame}})

	done := make(chan struct{})
	defer close(done)
	go h.forwardEvents(conn, events, done)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				conn.log.Warn().Err(err).Msg("Editor connection error")
			}
			break
		}

		var req wsRequest
		if err := codec.unmarshal(data, &req); err != nil {
			conn.sendError("", "Invalid message: "+err.Error(), "INVALID_PAYLOAD")
			continue
		}
		h.handleMessage(c, conn, id, req)
	}

	conn.log.Info().Msg("Editor client disconnected")
	return nil
}

func (h *EditorHandlerImpl) handleMessage(c echo.Context, conn *wsConn, id string, req wsRequest) {
	switch req.Type {
	case MsgTypePing:
		h.editors.TouchSession(id)
		conn.send(WSMessage{Type: MsgTypePong, ID: req.ID})
	case MsgTypeFrame:
		frame, err := h.editors.Frame(id)
		if err != nil {
			conn.sendAPIError(req.ID, mapError(err, "session", id, "failed to render editor"))
			return
		}
		conn.send(WSMessage{Type: MsgTypeFrame, ID: req.ID, Payload: editorResponse{Frame: frame}})
	case MsgTypeInput:
		if apiErr := h.validator.ValidateValue(SchemaEditorInput, req.Payload); apiErr != nil {
			conn.sendAPIError(req.ID, apiErr)
			return
		}
		frame, notices, err := h.editors.Dispatch(id, req.Payload.Inputs...)
		if err != nil {
			conn.sendAPIError(req.ID, mapError(err, "session", id, "failed to apply input"))
			return
		}
		conn.send(WSMessage{Type: MsgTypeFrame, ID: req.ID, Payload: editorResponse{Frame: frame, Notices: notices}})
	case MsgTypeReload:
		frame, notices, err := h.editors.Reload(c.Request().Context(), id)
		if err != nil {
			conn.sendAPIError(req.ID, mapError(err, "session", id, "failed to reload editor"))
			return
		}
		conn.send(WSMessage{Type: MsgTypeFrame, ID: req.ID, Payload: editorResponse{Frame: frame, Notices: notices}})
	default:
		conn.sendError(req.ID, "Unknown message type: "+req.Type, "INVALID_TYPE")
	}
}

// forwardEvents pushes session events until the subscription or the
// connection ends. A closed session closes the connection.
func (h *EditorHandlerImpl) forwardEvents(conn *wsConn, events <-chan session.Event, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type == session.EventClosed {
				conn.send(WSMessage{Type: MsgTypeClosed})
				conn.mu.Lock()
				_ = conn.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(wsWriteTimeout))
				conn.mu.Unlock()
				_ = conn.ws.SetReadDeadline(time.Now().Add(wsWriteTimeout))
				return
			}
			conn.send(WSMessage{Type: MsgTypeEvent, Payload: ev})
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
