package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sharetube/listen/internal/service/room"
	"github.com/sharetube/listen/pkg/ctxlogger"
)

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to upgrade connection", "error", err)
		return
	}

	cl := newClient(uuid.NewString(), conn, c.logger)
	ctx := context.WithValue(r.Context(), clientCtxKey, cl)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("conn_id", cl.id))

	if err := c.roomService.ConnectMember(ctx, &room.ConnectMemberParams{Conn: cl}); err != nil {
		c.logger.ErrorContext(ctx, "failed to connect member", "error", err)
		cl.Close()
		return
	}
	c.logger.InfoContext(ctx, "connection opened", "remote_addr", r.RemoteAddr)

	go cl.writePump()

	defer func() {
		cl.Close()
		if err := c.roomService.DisconnectMember(ctx, &room.DisconnectMemberParams{ConnId: cl.id}); err != nil {
			c.logger.ErrorContext(ctx, "failed to disconnect member", "error", err)
		}
		c.logger.InfoContext(ctx, "connection closed")
	}()

	cl.prepareRead()
	for {
		data, err := cl.readMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.InfoContext(ctx, "unexpected close", "error", err)
			}
			return
		}

		if err := c.wsmux.ServeMessage(ctx, data); err != nil {
			c.writeError(ctx, cl, err)

			if errors.Is(err, room.ErrInvalidCredential) {
				cl.closeWith(closeCodeInvalidCredential, "invalid credential")
			}
		}
	}
}

func (c controller) reply(ctx context.Context, cl *client, out *room.Output) {
	data, err := json.Marshal(out)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to encode reply", "type", out.Type, "error", err)
		return
	}

	if !cl.Send(data) {
		c.logger.WarnContext(ctx, "send buffer full, closing connection", "type", out.Type)
		cl.Close()
	}
}

func (c controller) writeError(ctx context.Context, cl *client, err error) {
	payload, status := c.mapError(err)
	if status == http.StatusInternalServerError {
		c.logger.ErrorContext(ctx, "failed to handle message", "error", err)
	} else {
		c.logger.InfoContext(ctx, "message rejected", "code", payload.Code, "error", err)
	}

	c.reply(ctx, cl, &room.Output{Type: room.EventError, Payload: payload})
}
