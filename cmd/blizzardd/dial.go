package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/blizzardproto/blizzard"
	"github.com/blizzardproto/blizzard/zlog"
)

func dialCmd() *cobra.Command {
	var addr, method, params string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "dial",
		Short: "Connect to a Blizzard server as instigator and issue one request",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDial(addr, method, params, timeout)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:7331", "server address")
	cmd.Flags().StringVarP(&method, "method", "m", "echo", "method to call")
	cmd.Flags().StringVarP(&params, "params", "p", "[]", "JSON params for the call")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "reply timeout")

	return cmd
}

func runDial(addr, method, params string, timeout time.Duration) error {
	if !json.Valid([]byte(params)) {
		return fmt.Errorf("params must be valid JSON, got %q", params)
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}

	logger := zlog.New("blizzardd-dial")
	session := blizzard.NewSession(conn, true, blizzard.WithLogger(logger))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- session.Run(context.Background()) }()

	select {
	case ev := <-session.Events():
		if ev.Kind != blizzard.EventReady {
			return fmt.Errorf("unexpected first event: %v", ev.Kind)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	type result struct {
		value any
		err   *blizzard.Error
	}
	done := make(chan result, 1)

	err = session.Request(ctx, method, json.RawMessage(params), func(callErr *blizzard.Error, value any) {
		done <- result{value: value, err: callErr}
	})
	if err != nil {
		return err
	}

	select {
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("call failed: %s", r.err)
		}
		printResult(r.value)
		return session.End()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func printResult(v any) {
	switch value := v.(type) {
	case []byte:
		fmt.Printf("%x\n", value)
	case json.RawMessage:
		fmt.Println(string(value))
	default:
		encoded, _ := json.Marshal(value)
		fmt.Println(string(encoded))
	}
}
