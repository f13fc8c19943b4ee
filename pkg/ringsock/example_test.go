package ringsock_test

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"

	"github.com/bft-labs/ringsock/pkg/ringsock"
)

// ExampleNew starts a server, sends two records and a seek, and prints the replies.
func ExampleNew() {
	cfg := ringsock.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.Capacity = 3
	cfg.JournalKind = ringsock.JournalNone

	srv, err := ringsock.New(cfg)
	if err != nil {
		fmt.Printf("failed to create server: %v\n", err)
		return
	}
	if err := srv.Start(context.Background()); err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}
	defer srv.Stop()

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		fmt.Printf("dial: %v\n", err)
		return
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	for _, step := range []struct{ send, reply string }{
		{"first\n", "first\n"},
		{"second\n", "first\nsecond\n"},
		{"SEEKTO:1,3\n", "ond\n"},
	} {
		fmt.Fprint(conn, step.send)
		buf := make([]byte, len(step.reply))
		if _, err := io.ReadFull(r, buf); err != nil {
			fmt.Printf("read: %v\n", err)
			return
		}
		fmt.Printf("%q\n", buf)
	}

	// Output:
	// "first\n"
	// "first\nsecond\n"
	// "ond\n"
}

// Example_withEventHandler shows how to observe connections.
func Example_withEventHandler() {
	srv, err := ringsock.New(ringsock.DefaultConfig(), ringsock.WithEventHandler(&connPrinter{}))
	if err != nil {
		fmt.Printf("failed to create server: %v\n", err)
		return
	}
	_ = srv
}

// connPrinter implements ringsock.EventHandler.
type connPrinter struct {
	ringsock.BaseEventHandler // Embed for no-op defaults
}

func (connPrinter) OnConnectionClosed(event ringsock.ConnectionClosedEvent) {
	fmt.Printf("connection %s closed after %d records\n", event.ID, event.Records)
}
