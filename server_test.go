package blizzard

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerAcceptsAndDialClientRoundTrip(t *testing.T) {
	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0}
	server, err := New(addr)
	require.NoError(t, err)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = server.Serve(ctx, func(session *Session) {
			session.Expose("echo", func(params json.RawMessage, done Completion) {
				done(nil, params)
			})
			_ = session.Run(ctx)
		})
	}()

	conn, err := net.DialTCP("tcp", nil, server.Addr().(*net.TCPAddr))
	require.NoError(t, err)

	client := NewSession(conn, true)
	go func() { _ = client.Run(ctx) }()
	waitForEvent(t, client.Events(), EventReady)

	result := make(chan any, 1)
	require.NoError(t, client.Request(ctx, "echo", "hello", func(e *Error, r any) {
		assert.Nil(t, e)
		result <- r
	}))

	select {
	case r := <-result:
		assert.Equal(t, json.RawMessage(`"hello"`), r)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

func TestServerCloseUnblocksAccept(t *testing.T) {
	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0}
	server, err := New(addr)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- server.Serve(context.Background(), func(*Session) {}) }()

	require.NoError(t, server.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}
