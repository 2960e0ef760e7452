package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/custody-tracker/internal/client"
)

type commandContext struct {
	addr    string
	token   string
	jsonOut bool
}

func (c *commandContext) withClient(fn func(*client.Client) error) error {
	cl, err := client.Dial(c.addr, c.token)
	if err != nil {
		return fmt.Errorf("connect to custodyd at %s: %w", c.addr, err)
	}
	defer cl.Close()
	return wrapRPCError(fn(cl))
}

func (c *commandContext) requireToken() error {
	if c.token == "" {
		return errors.New("no token: run `custody token --name <you>` and export CUSTODY_TOKEN")
	}
	return nil
}

func wrapRPCError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable:
		return fmt.Errorf("custodyd unreachable: %s", st.Message())
	case codes.Unauthenticated:
		return fmt.Errorf("not signed in: %s", st.Message())
	}
	return errors.New(st.Message())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
