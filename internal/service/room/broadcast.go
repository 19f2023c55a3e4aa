package room

import (
	"context"
	"encoding/json"

	"github.com/sharetube/listen/internal/repository/connection"
)

// broadcast encodes out once and hands it to every connection joined to code except exceptConnId.
func (s service) broadcast(ctx context.Context, code string, out *Output, exceptConnId string) {
	data, err := json.Marshal(out)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode event", "type", out.Type, "error", err)
		return
	}

	for _, conn := range s.connRepo.GetConnsByRoomCode(code) {
		if conn.Id() == exceptConnId {
			continue
		}

		s.deliver(ctx, conn, out.Type, data)
	}
}

func (s service) sendToConn(ctx context.Context, connId string, out *Output) {
	conn, err := s.connRepo.GetConn(connId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conn", "conn_id", connId, "error", err)
		return
	}

	data, err := json.Marshal(out)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode event", "type", out.Type, "error", err)
		return
	}

	s.deliver(ctx, conn, out.Type, data)
}

// deliver never blocks: a connection that cannot take the event is closed.
func (s service) deliver(ctx context.Context, conn connection.Conn, eventType string, data []byte) {
	if conn.Send(data) {
		return
	}

	s.logger.WarnContext(ctx, "send buffer full, closing connection", "conn_id", conn.Id(), "type", eventType)
	if err := conn.Close(); err != nil {
		s.logger.InfoContext(ctx, "failed to close connection", "conn_id", conn.Id(), "error", err)
	}
}
