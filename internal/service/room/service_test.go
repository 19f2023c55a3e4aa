package room

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/listen/internal/clock"
	"github.com/sharetube/listen/internal/repository/connection/inmemory"
	roomRedis "github.com/sharetube/listen/internal/repository/room/redis"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type fakeConn struct {
	id     string
	mu     sync.Mutex
	msgs   [][]byte
	full   bool
	closed bool
}

func (c *fakeConn) Id() string {
	return c.id
}

func (c *fakeConn) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.full {
		return false
	}

	c.msgs = append(c.msgs, data)
	return true
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

// take returns the events received since the last call.
func (c *fakeConn) take(t *testing.T) []event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	events := make([]event, 0, len(c.msgs))
	for _, msg := range c.msgs {
		var e event
		require.NoError(t, json.Unmarshal(msg, &e))
		events = append(events, e)
	}
	c.msgs = nil

	return events
}

func (c *fakeConn) takeTypes(t *testing.T) []string {
	t.Helper()
	types := make([]string, 0)
	for _, e := range c.take(t) {
		types = append(types, e.Type)
	}

	return types
}

func decodePayload[T any](t *testing.T, e event) T {
	t.Helper()
	var payload T
	require.NoError(t, json.Unmarshal(e.Payload, &payload))

	return payload
}

type fakeAuthenticator map[string]string

func (a fakeAuthenticator) Authenticate(ctx context.Context, credential string) (string, error) {
	identity, ok := a[credential]
	if !ok {
		return "", errors.New("unknown token")
	}

	return identity, nil
}

type sequenceGenerator struct {
	codes []string
	next  int
}

func (g *sequenceGenerator) GenerateRandomString(int) string {
	code := g.codes[g.next%len(g.codes)]
	g.next++
	return code
}

type advancer interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type fixture struct {
	s   *service
	clk advancer
	mr  *miniredis.Miniredis
}

func newFixture(t *testing.T, codes ...string) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fc := clockwork.NewFakeClockAt(t0)

	s := NewService(
		roomRedis.NewRepo(rc, 24*time.Hour, logger),
		inmemory.NewRepo(logger),
		fakeAuthenticator{"token-u1": "u1", "token-u2": "u2", "token-u3": "u3"},
		clock.NewWithOffset(fc, 250*time.Millisecond),
		logger,
	)

	if len(codes) == 0 {
		codes = []string{"AB12CD", "QW34ER", "ZX56CV"}
	}
	s.generator = &sequenceGenerator{codes: codes}

	return &fixture{s: s, clk: fc, mr: mr}
}

// connect registers a connection and authenticates it as identity.
func (f *fixture) connect(t *testing.T, connId, identity string) *fakeConn {
	t.Helper()
	ctx := context.Background()

	conn := &fakeConn{id: connId}
	require.NoError(t, f.s.ConnectMember(ctx, &ConnectMemberParams{Conn: conn}))

	_, err := f.s.Authenticate(ctx, &AuthenticateParams{ConnId: connId, Credential: "token-" + identity})
	require.NoError(t, err)

	return conn
}

func (f *fixture) join(t *testing.T, conn *fakeConn, code string) {
	t.Helper()
	_, err := f.s.JoinRoom(context.Background(), &JoinRoomParams{ConnId: conn.id, Code: code})
	require.NoError(t, err)
}

func (f *fixture) createRoom(t *testing.T, identity string) string {
	t.Helper()
	resp, err := f.s.CreateRoom(context.Background(), &CreateRoomParams{Identity: identity})
	require.NoError(t, err)

	return resp.Room.Code
}
