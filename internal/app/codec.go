package app

import (
	"encoding/json"
	"strings"

	"github.com/avelov/huddle/internal/core"
)

// Decode turns one raw inbound frame into a typed envelope. A frame that
// is a JSON object with a non-empty "type" is structured; anything else
// (garbage bytes, empty input, JSON without a type) degrades to a plain
// chat message whose body is the frame text, with invalid UTF-8 replaced
// by U+FFFD so the body survives JSON re-encoding unchanged. Decode
// never fails.
func Decode(raw []byte) (core.Envelope, bool) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && probe.Type != "" {
		return core.Envelope{Kind: probe.Type, Raw: append(json.RawMessage(nil), raw...)}, true
	}

	body := strings.ToValidUTF8(string(raw), "�")
	fallback, _ := json.Marshal(core.ChatInbound{Type: core.KindChat, Message: body})
	return core.Envelope{Kind: core.KindChat, Raw: fallback}, false
}
