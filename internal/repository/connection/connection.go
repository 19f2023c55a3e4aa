package connection

import "errors"

var (
	ErrNotFound             = errors.New("connection not found")
	ErrAlreadyExists        = errors.New("connection already exists")
	ErrAlreadyAuthenticated = errors.New("connection already authenticated")
)

// Conn is a live client connection able to take pre-encoded events without blocking.
type Conn interface {
	Id() string
	Send(data []byte) bool
	Close() error
}

type Session struct {
	ConnId   string
	Identity string
	RoomCode string
}
