package host

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vinterp/pkg/interp"
	"github.com/vango-dev/vinterp/pkg/protocol"
)

// wsConn is one websocket client. Inbound frames are applied in arrival
// order; outbound interpreter messages are written as JSON text messages
// and error reports as binary FrameError frames.
type wsConn struct {
	id     string
	h      *Host
	ctx    context.Context
	conn   *websocket.Conn
	msgs   <-chan protocol.Message
	cancel func()
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

// ServeWS upgrades the request and serves the edit channel until the
// client disconnects or the host closes.
func (h *Host) ServeWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.cfg.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	id, msgs, cancel := h.Subscribe()
	c := &wsConn{
		id:     id,
		h:      h,
		ctx:    r.Context(),
		conn:   conn,
		msgs:   msgs,
		cancel: cancel,
		frames: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	h.logger.Info("websocket connected", "conn", id, "remote", r.RemoteAddr)

	go c.writeLoop()
	c.readLoop()
}

func (c *wsConn) close() {
	c.once.Do(func() {
		close(c.done)
		c.cancel()
		c.conn.Close()
		c.h.logger.Info("websocket disconnected", "conn", c.id)
	})
}

// closeAfterFatal gives the write loop time to deliver a fatal error frame
// before the connection closes.
func (c *wsConn) closeAfterFatal() {
	select {
	case <-c.done:
	case <-time.After(c.h.cfg.WriteTimeout):
	}
}

func (c *wsConn) readLoop() {
	defer c.close()

	cfg := &c.h.cfg
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.h.logger.Error("read error", "conn", c.id, "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		frame, err := protocol.DecodeFrame(data)
		if err != nil {
			c.sendError(&protocol.ErrorMessage{Code: protocol.CodeInvalidFrame, Index: -1, Message: err.Error(), Fatal: true})
			c.closeAfterFatal()
			return
		}
		if !c.handleFrame(frame) {
			return
		}
	}
}

// handleFrame applies one inbound frame. It returns false when the
// connection should close.
func (c *wsConn) handleFrame(f *protocol.Frame) bool {
	ctx := c.ctx
	switch f.Type {
	case protocol.FrameEdits:
		var (
			b   *protocol.EditBatch
			err error
		)
		if f.Flags.Has(protocol.FlagText) {
			b, err = protocol.ParseEditsJSON(f.Payload)
		} else {
			b, err = protocol.DecodeEdits(f.Payload)
		}
		if err != nil {
			c.sendError(protocol.NewError(protocol.CodeMalformed, 0, -1, err.Error()))
			return true
		}
		if err := c.h.Apply(ctx, b); err != nil {
			return c.reportApply(b.Seq, err)
		}

	case protocol.FrameHydrate:
		req, err := protocol.DecodeHydrate(f.Payload)
		if err != nil {
			c.sendError(protocol.NewError(protocol.CodeMalformed, 0, -1, err.Error()))
			return true
		}
		report, err := c.h.Hydrate(ctx, req)
		if err != nil {
			return c.reportApply(0, err)
		}
		if !report.OK() {
			c.sendError(protocol.NewError(protocol.CodeHydration, 0, -1, report.Mismatches[0].String()))
		}

	default:
		c.sendError(protocol.NewError(protocol.CodeInvalidFrame, 0, -1, "unexpected frame "+f.Type.String()))
	}
	return true
}

func (c *wsConn) reportApply(seq uint64, err error) bool {
	var v *interp.ViolationError
	switch {
	case stderrors.As(err, &v):
		c.sendError(protocol.NewError(protocol.CodeViolation, v.Seq, v.Index, v.Err.Error()))
		return true
	case stderrors.Is(err, ErrClosed):
		return false
	case stderrors.Is(err, ErrPopulated):
		c.sendError(protocol.NewError(protocol.CodeHydration, seq, -1, err.Error()))
		return true
	}
	c.sendError(protocol.NewError(protocol.CodeInternal, seq, -1, err.Error()))
	return true
}

func (c *wsConn) sendError(em *protocol.ErrorMessage) {
	frame := protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em))
	select {
	case c.frames <- frame.Encode():
	case <-c.done:
	}
}

func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(c.h.cfg.HeartbeatInterval)
	defer ticker.Stop()
	defer c.close()

	for {
		select {
		case msg, ok := <-c.msgs:
			if !ok {
				select {
				case <-c.done:
					return
				default:
				}
				c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "host closed"))
				return
			}
			data, err := protocol.EncodeMessage(msg)
			if err != nil {
				c.h.logger.Error("message encode error", "conn", c.id, "error", err)
				continue
			}
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}

		case frame := <-c.frames:
			if err := c.write(websocket.BinaryMessage, frame); err != nil {
				return
			}
			if fatal(frame) {
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(c.h.cfg.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *wsConn) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.h.cfg.WriteTimeout))
	err := c.conn.WriteMessage(messageType, data)
	if err != nil {
		c.h.logger.Error("write error", "conn", c.id, "error", err)
	}
	return err
}

// fatal reports whether an encoded FrameError asks for the connection to
// close.
func fatal(frame []byte) bool {
	f, err := protocol.DecodeFrame(frame)
	if err != nil {
		return true
	}
	em, err := protocol.DecodeErrorMessage(f.Payload)
	return err != nil || em.Fatal
}
