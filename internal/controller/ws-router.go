package controller

import (
	"github.com/sharetube/listen/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdMw(), c.loggerWSMw())

	// session
	wsrouter.Handle(mux, "authenticate", c.handleAuthenticate)
	wsrouter.Handle(mux, "ping", c.handlePing)

	// membership
	wsrouter.Handle(mux, "join_room", c.handleJoinRoom)
	wsrouter.Handle(mux, "leave_room", c.handleLeaveRoom)

	// playback
	wsrouter.Handle(mux, "play", c.handlePlay)
	wsrouter.Handle(mux, "pause", c.handlePause)
	wsrouter.Handle(mux, "resume", c.handleResume)
	wsrouter.Handle(mux, "seek", c.handleSeek)

	return mux
}
