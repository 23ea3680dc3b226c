// Command echo is a runnable, two-sided demonstration of the Blizzard
// Session API: a server exposes "echo", a client dials in as instigator
// and calls it once. It mirrors the shape of the teacher's
// example/echo.go, adapted from a raw byte echo to a Blizzard method
// call.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/blizzardproto/blizzard"
)

func main() {
	addr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:0")
	if err != nil {
		fatal(err)
	}

	server, err := blizzard.New(addr)
	if err != nil {
		fatal(err)
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = server.Serve(ctx, func(session *blizzard.Session) {
			session.Expose("echo", func(params json.RawMessage, done blizzard.Completion) {
				done(nil, params)
			})
			if err := session.Run(ctx); err != nil {
				slog.Debug("session ended", "error", err)
			}
		})
	}()

	conn, err := net.DialTCP("tcp", nil, server.Addr().(*net.TCPAddr))
	if err != nil {
		fatal(err)
	}

	client := blizzard.NewSession(conn, true)
	go func() {
		if err := client.Run(ctx); err != nil {
			slog.Debug("client session ended", "error", err)
		}
	}()

	select {
	case ev := <-client.Events():
		if ev.Kind != blizzard.EventReady {
			fatal(fmt.Errorf("unexpected event: %v", ev.Kind))
		}
	case <-time.After(5 * time.Second):
		fatal(fmt.Errorf("handshake timed out"))
	}

	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()

	replyCh := make(chan any, 1)
	err = client.Request(callCtx, "echo", []int{1, 2, 3}, func(callErr *blizzard.Error, result any) {
		if callErr != nil {
			fatal(fmt.Errorf("echo failed: %s", callErr))
		}
		replyCh <- result
	})
	if err != nil {
		fatal(err)
	}

	select {
	case reply := <-replyCh:
		fmt.Printf("echo replied: %s\n", reply)
	case <-callCtx.Done():
		fatal(callCtx.Err())
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
