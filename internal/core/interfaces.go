package core

import "github.com/avelov/huddle/internal/domain"

// Frame is a raw outbound payload.
type Frame []byte

// Conn abstracts one duplex transport channel.
// Owned by the adapter; the adapter must Close() it. The hub only ever
// checks openness and pushes frames, it never touches the socket itself.
type Conn interface {
	IsOpen() bool
	Send(Frame) error
}

// TaggedConn is a Conn carrying the identity assigned at admission time.
// The tag is immutable for the connection's lifetime; it is the only way
// inbound frames are attributed to a profile.
type TaggedConn interface {
	Conn
	Identity() domain.UserID
}
