package core

import (
	"encoding/json"
	"time"

	"github.com/avelov/huddle/internal/domain"
)

// Message kinds carried in the "type" field of every frame.
const (
	KindChat    = "chat_message"
	KindTyping  = "typing_indicator"
	KindPing    = "ping"
	KindPong    = "pong"
	KindWelcome = "welcome"
	KindJoined  = "user_joined"
	KindLeft    = "user_left"
	KindRoster  = "connected_users"
)

// Envelope is the decoded view of one inbound frame: the discriminating
// kind plus the full raw payload for the handler to unmarshal.
type Envelope struct {
	Kind string
	Raw  json.RawMessage
}

// UserRef identifies a sender on outbound frames.
type UserRef struct {
	UserID domain.UserID `json:"userId"`
	Email  string        `json:"email"`
}

type ChatInbound struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type TypingInbound struct {
	Type     string `json:"type"`
	IsTyping *bool  `json:"isTyping"`
}

type ChatBroadcast struct {
	Type      string    `json:"type"`
	User      UserRef   `json:"user"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type TypingBroadcast struct {
	Type      string    `json:"type"`
	User      UserRef   `json:"user"`
	IsTyping  bool      `json:"isTyping"`
	Timestamp time.Time `json:"timestamp"`
}

type Pong struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type Welcome struct {
	Type string         `json:"type"`
	User domain.Profile `json:"user"`
}

type UserJoined struct {
	Type string         `json:"type"`
	User domain.Profile `json:"user"`
}

type UserLeft struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
	Email  string        `json:"email"`
}

type Roster struct {
	Type  string           `json:"type"`
	Users []domain.Profile `json:"users"`
}
