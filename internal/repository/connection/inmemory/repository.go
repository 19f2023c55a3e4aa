package inmemory

import (
	"log/slog"
	"sync"

	"github.com/sharetube/listen/internal/repository/connection"
)

type entry struct {
	conn    connection.Conn
	session connection.Session
}

type repo struct {
	entries map[string]*entry
	mu      sync.RWMutex
	logger  *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

func (r *repo) Add(conn connection.Conn) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", conn.Id())
	if _, ok := r.entries[conn.Id()]; ok {
		r.logger.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.entries[conn.Id()] = &entry{
		conn:    conn,
		session: connection.Session{ConnId: conn.Id()},
	}

	return nil
}

// Remove drops the connection and returns the session it had at that moment.
func (r *repo) Remove(connId string) (connection.Session, error) {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", connId)
	e, ok := r.entries[connId]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return connection.Session{}, connection.ErrNotFound
	}

	delete(r.entries, connId)

	return e.session, nil
}

func (r *repo) GetSession(connId string) (connection.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[connId]
	if !ok {
		return connection.Session{}, connection.ErrNotFound
	}

	return e.session, nil
}

func (r *repo) GetConn(connId string) (connection.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[connId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return e.conn, nil
}

// SetIdentity binds identity to the connection. It can only happen once per connection.
func (r *repo) SetIdentity(connId, identity string) error {
	funcName := "connection.inmemory.SetIdentity"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", connId, "identity", identity)
	e, ok := r.entries[connId]
	if !ok {
		return connection.ErrNotFound
	}

	if e.session.Identity != "" {
		r.logger.Info(funcName, "error", connection.ErrAlreadyAuthenticated)
		return connection.ErrAlreadyAuthenticated
	}

	e.session.Identity = identity

	return nil
}

// SetRoomCode binds the connection to a room; an empty code unbinds it.
func (r *repo) SetRoomCode(connId, code string) error {
	funcName := "connection.inmemory.SetRoomCode"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", connId, "code", code)
	e, ok := r.entries[connId]
	if !ok {
		return connection.ErrNotFound
	}

	e.session.RoomCode = code

	return nil
}

func (r *repo) GetConnsByRoomCode(code string) []connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]connection.Conn, 0)
	for _, e := range r.entries {
		if e.session.RoomCode == code {
			conns = append(conns, e.conn)
		}
	}

	return conns
}
