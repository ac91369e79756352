package app

import (
	"encoding/json"
	"testing"

	"github.com/avelov/huddle/internal/core"
)

func TestDecode(t *testing.T) {
	t.Run("structured frame keeps its kind and payload", func(t *testing.T) {
		raw := []byte(`{"type":"chat_message","message":"hello"}`)
		env, structured := Decode(raw)
		if !structured {
			t.Fatal("expected structured decode")
		}
		if env.Kind != core.KindChat {
			t.Fatalf("wrong kind: %s", env.Kind)
		}
		var p core.ChatInbound
		if err := json.Unmarshal(env.Raw, &p); err != nil || p.Message != "hello" {
			t.Fatalf("payload not preserved: %v %v", p, err)
		}
	})

	t.Run("unknown kinds pass through for the dispatcher to reject", func(t *testing.T) {
		env, structured := Decode([]byte(`{"type":"made_up"}`))
		if !structured || env.Kind != "made_up" {
			t.Fatalf("got kind=%s structured=%v", env.Kind, structured)
		}
	})

	fallbacks := []struct {
		name string
		raw  string
		want string
	}{
		{"byte garbage", "\x00\x01\xffnot json", "\x00\x01�not json"},
		{"empty input", "", ""},
		{"json object without type", `{"message":"hi"}`, `{"message":"hi"}`},
		{"json with empty type", `{"type":"","message":"hi"}`, `{"type":"","message":"hi"}`},
		{"json array", `[1,2,3]`, `[1,2,3]`},
		{"bare string", `"hello"`, `"hello"`},
		{"bare number", `42`, `42`},
	}
	for _, tc := range fallbacks {
		t.Run("falls back to chat for "+tc.name, func(t *testing.T) {
			env, structured := Decode([]byte(tc.raw))
			if structured {
				t.Fatal("fallback must not report structured")
			}
			if env.Kind != core.KindChat {
				t.Fatalf("fallback kind must be chat, got %s", env.Kind)
			}
			var p core.ChatInbound
			if err := json.Unmarshal(env.Raw, &p); err != nil {
				t.Fatalf("fallback payload must be valid JSON: %v", err)
			}
			if p.Message != tc.want {
				t.Fatalf("fallback body mismatch, got %q want %q", p.Message, tc.want)
			}
		})
	}

	t.Run("invalid utf-8 survives a json round trip", func(t *testing.T) {
		env, _ := Decode([]byte("hi \xff\xfe there"))
		reencoded, err := json.Marshal(json.RawMessage(env.Raw))
		if err != nil {
			t.Fatalf("re-encode: %v", err)
		}
		var p core.ChatInbound
		if err := json.Unmarshal(reencoded, &p); err != nil {
			t.Fatalf("decode after re-encode: %v", err)
		}
		if p.Message != "hi � there" {
			t.Fatalf("body changed across re-encoding: %q", p.Message)
		}
	})
}
