package ws

import (
	"errors"
	"testing"

	"github.com/avelov/huddle/internal/core"
)

func TestWsConnSend(t *testing.T) {
	c := newWSConn("u1", nil)

	if c.Identity() != "u1" {
		t.Fatalf("identity tag lost: %s", c.Identity())
	}
	if !c.IsOpen() {
		t.Fatal("fresh connection should be open")
	}

	// Fill the outbound buffer; the overflow frame is dropped, not the socket.
	for i := 0; i < cap(c.send); i++ {
		if err := c.Send(core.Frame("x")); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if err := c.Send(core.Frame("overflow")); !errors.Is(err, ErrBackpressure) {
		t.Fatalf("expected backpressure, got %v", err)
	}
	if !c.IsOpen() {
		t.Fatal("backpressure must not close the connection")
	}
}
