package io

import (
	"context"
	"fmt"
	"io"
)

// Console is a sharable, write-only device which prints each value written
// to it as a line of Output.
type Console struct {
	Driver
	Output io.Writer
}

var _ Device = (*Console)(nil)

func (con *Console) Sharable() bool { return true }
func (con *Console) Readable() bool { return false }
func (con *Console) Writable() bool { return true }

// Read is not supported by the console.
func (con *Console) Read(addr int) {
}

// Write starts a console write.
func (con *Console) Write(addr int, value int) {
	con.submit(request{write: true, addr: addr, value: value})
}

// Run services console writes until the context is done.
func (con *Console) Run(ctx context.Context) error {
	return con.serve(ctx, con.handle)
}

func (con *Console) handle(req request) (data int) {
	if con.Output != nil {
		fmt.Fprintf(con.Output, "CONSOLE: %d\n", req.value)
	}
	return
}
