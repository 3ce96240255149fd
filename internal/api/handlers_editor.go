// handlers_editor.go - Interactive floorplan editor session handlers
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/home-manager/backend/internal/canvas"
	"github.com/home-manager/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEMsgpack is the content type of MessagePack responses.
const MIMEMsgpack = "application/msgpack"

const defaultWSMaxMessageBytes = 64 * 1024

// EditorHandlerImpl implements the EditorHandler interface
type EditorHandlerImpl struct {
	editors   EditorManager
	validator *Validator
	upgrader  websocket.Upgrader
	maxMsg    int64
	log       zerolog.Logger
}

// NewEditorHandler creates a new editor handler instance
func NewEditorHandler(editors EditorManager, validator *Validator, maxMessageBytes int64, logger zerolog.Logger) EditorHandler {
	if maxMessageBytes <= 0 {
		maxMessageBytes = defaultWSMaxMessageBytes
	}
	return &EditorHandlerImpl{
		editors:   editors,
		validator: validator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// CORS middleware decides which origins reach the API
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		maxMsg: maxMessageBytes,
		log:    logger.With().Str("component", "editor").Logger(),
	}
}

// editorResponse is returned by every editor operation.
type editorResponse struct {
	Session *models.EditorSession `json:"session,omitempty" msgpack:"session,omitempty"`
	Frame   canvas.Frame          `json:"frame" msgpack:"frame"`
	Notices []canvas.Notice       `json:"notices,omitempty" msgpack:"notices,omitempty"`
}

// HandleOpenSession loads a floorplan into a new editor fitted to the
// client's container size
func (h *EditorHandlerImpl) HandleOpenSession(c echo.Context) error {
	var req openSessionRequest
	if err := h.validator.Bind(c, SchemaSessionOpen, &req); err != nil {
		return err
	}

	sess, err := h.editors.Open(c.Request().Context(), req.FloorplanID,
		canvas.Size{Width: req.Width, Height: req.Height}, req.Locked)
	if err != nil {
		return mapError(err, "floorplan", req.FloorplanID, "failed to open editor")
	}
	frame, err := h.editors.Frame(sess.ID)
	if err != nil {
		return mapError(err, "session", sess.ID, "failed to render editor")
	}
	return respond(c, http.StatusCreated, editorResponse{Session: sess, Frame: frame})
}

// HandleListSessions returns all open editor sessions
func (h *EditorHandlerImpl) HandleListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.editors.List())
}

// HandleGetSession returns the session status
func (h *EditorHandlerImpl) HandleGetSession(c echo.Context) error {
	id := c.Param("id")
	sess, ok := h.editors.Get(id)
	if !ok {
		return NewNotFoundError("session", id)
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleCloseSession closes an editor session
func (h *EditorHandlerImpl) HandleCloseSession(c echo.Context) error {
	id := c.Param("id")
	if err := h.editors.Close(id); err != nil {
		return mapError(err, "session", id, "failed to close editor")
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleInput applies a batch of inputs in order and returns the new frame
func (h *EditorHandlerImpl) HandleInput(c echo.Context) error {
	id := c.Param("id")
	var req inputBatch
	if err := h.validator.Bind(c, SchemaEditorInput, &req); err != nil {
		return err
	}

	frame, notices, err := h.editors.Dispatch(id, req.Inputs...)
	if err != nil {
		return mapError(err, "session", id, "failed to apply input")
	}
	return respond(c, http.StatusOK, editorResponse{Frame: frame, Notices: notices})
}

// HandleReload replaces the editor's devices with the stored ones
func (h *EditorHandlerImpl) HandleReload(c echo.Context) error {
	id := c.Param("id")
	frame, notices, err := h.editors.Reload(c.Request().Context(), id)
	if err != nil {
		return mapError(err, "session", id, "failed to reload editor")
	}
	return respond(c, http.StatusOK, editorResponse{Frame: frame, Notices: notices})
}

// HandleFrame renders the current editor state (?format=msgpack for MessagePack)
func (h *EditorHandlerImpl) HandleFrame(c echo.Context) error {
	id := c.Param("id")
	frame, err := h.editors.Frame(id)
	if err != nil {
		return mapError(err, "session", id, "failed to render editor")
	}
	return respond(c, http.StatusOK, frame)
}

// respond writes v as MessagePack when the client asks for it and as JSON otherwise.
func respond(c echo.Context, status int, v interface{}) error {
	if !wantsMsgpack(c) {
		return c.JSON(status, v)
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(status, MIMEMsgpack, data)
}

func wantsMsgpack(c echo.Context) bool {
	if c.QueryParam("format") == "msgpack" {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEMsgpack)
}

// Request types

type openSessionRequest struct {
	FloorplanID string  `json:"floorplanId"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Locked      bool    `json:"locked"`
}

type inputBatch struct {
	Inputs []canvas.Input `json:"inputs" msgpack:"inputs"`
}
