package io

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// request is a single device operation.
type request struct {
	write bool
	addr  int
	value int
}

// Driver is the device core shared by all of the simulated devices: device
// number, access latency, a one-slot request queue, and the busy flag.
type Driver struct {
	Latency    time.Duration        // Time taken by each request.
	Interrupts *InterruptController // Destination of completion interrupts.

	id       atomic.Int64
	busy     atomic.Bool
	once     sync.Once
	requests chan request
}

// ID returns the device number.
func (drv *Driver) ID() int {
	return int(drv.id.Load())
}

// SetID sets the device number.
func (drv *Driver) SetID(id int) {
	drv.id.Store(int64(id))
}

// Available returns false while a request is in flight.
func (drv *Driver) Available() bool {
	return !drv.busy.Load()
}

func (drv *Driver) queue() chan request {
	drv.once.Do(func() {
		drv.requests = make(chan request, 1)
	})
	return drv.requests
}

// submit starts a request. The caller must have checked Available.
func (drv *Driver) submit(req request) {
	drv.busy.Store(true)
	drv.queue() <- req
}

// serve runs the request loop, calling handle for each request and posting
// the completion interrupt.
func (drv *Driver) serve(ctx context.Context, handle func(req request) (data int)) (err error) {
	requests := drv.queue()
	for {
		var req request
		select {
		case <-ctx.Done():
			return
		case req = <-requests:
		}

		if drv.Latency > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(drv.Latency):
			}
		}

		data := handle(req)

		intr := Interrupt{
			Kind:     INT_READ_DONE,
			DeviceID: drv.ID(),
			Addr:     req.addr,
			Data:     data,
		}
		if req.write {
			intr.Kind = INT_WRITE_DONE
			intr.Data = 0
		}

		// The completion is queued before the device is available again.
		if drv.Interrupts != nil {
			drv.Interrupts.Put(intr)
		}
		drv.busy.Store(false)
	}
}
