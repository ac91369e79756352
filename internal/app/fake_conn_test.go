package app

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/avelov/huddle/internal/core"
	"github.com/avelov/huddle/internal/domain"
)

// fakeConn records every frame it is asked to deliver.
type fakeConn struct {
	id     domain.UserID
	open   bool
	frames []core.Frame
}

func newFakeConn(id domain.UserID) *fakeConn {
	return &fakeConn{id: id, open: true}
}

func (c *fakeConn) IsOpen() bool            { return c.open }
func (c *fakeConn) Identity() domain.UserID { return c.id }

func (c *fakeConn) Send(f core.Frame) error {
	if !c.open {
		return errors.New("closed")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) reset() { c.frames = nil }

func (c *fakeConn) kinds(t *testing.T) []string {
	t.Helper()
	out := make([]string, 0, len(c.frames))
	for _, m := range c.decoded(t) {
		kind, _ := m["type"].(string)
		out = append(out, kind)
	}
	return out
}

func (c *fakeConn) decoded(t *testing.T) []map[string]any {
	t.Helper()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("undecodable frame %q: %v", f, err)
		}
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) countKind(t *testing.T, kind string) int {
	t.Helper()
	n := 0
	for _, k := range c.kinds(t) {
		if k == kind {
			n++
		}
	}
	return n
}
