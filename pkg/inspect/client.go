// SPDX-License-Identifier: Apache-2.0

package inspect

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	logging "github.com/loopholelabs/logging/types"

	"github.com/statefold/inspect/pkg/manager"
)

const (
	stateRunning = iota
	stateClosed
)

// Client fans concurrent inspect submissions into a bounded queue consumed
// by a single serializer loop, so the server manager only ever sees one
// in-flight request.
type Client struct {
	queue chan *request
	dial  DialFunc

	sessionID   string
	dialTimeout time.Duration
	callTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	state  atomic.Uint32
	logger logging.Logger
	wg     sync.WaitGroup
}

func New(options *Options) (*Client, error) {
	if !validOptions(options) {
		return nil, OptionsErr
	}
	dial := options.Dial
	if dial == nil {
		address := options.Address
		dial = func(ctx context.Context) (Conn, error) {
			return manager.Connect(ctx, address)
		}
	}
	dialTimeout := options.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = DefaultDialTimeout
	}
	c := &Client{
		queue:       make(chan *request, options.QueueSize),
		dial:        dial,
		sessionID:   options.SessionID,
		dialTimeout: dialTimeout,
		callTimeout: options.CallTimeout,
		logger:      options.Logger.SubLogger("inspect"),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.wg.Add(1)
	go c.loop()
	return c, nil
}

// Inspect submits one payload and waits for its report. The enqueue itself
// never blocks: a full queue fails immediately with OverloadedErr so the
// caller can shed load. ctx only bounds the wait; once queued, a request is
// serviced even if its caller has given up.
func (c *Client) Inspect(ctx context.Context, payload []byte) (*manager.InspectStateResponse, error) {
	if c.state.Load() == stateClosed {
		return nil, ClosedErr
	}
	req := &request{
		payload:  payload,
		response: make(chan result, 1),
	}
	select {
	case c.queue <- req:
		c.logger.Debug().Msg("inspect request added to the queue")
	default:
		requestsDropped.Inc()
		return nil, OverloadedErr
	}
	select {
	case res := <-req.response:
		return res.response, res.err
	case <-ctx.Done():
		// The request stays queued and will be served; its result lands in
		// the buffered slot with nobody left to read it.
		abandonedWaits.Inc()
		return nil, ctx.Err()
	case <-c.ctx.Done():
		// The loop drains the queue on shutdown, so a response may already
		// be on its way.
		select {
		case res := <-req.response:
			return res.response, res.err
		default:
			return nil, ClosedErr
		}
	}
}

// Close stops the serializer loop and resolves every queued request with
// ClosedErr. Close is idempotent.
func (c *Client) Close() error {
	if c.state.CompareAndSwap(stateRunning, stateClosed) {
		c.cancel()
		c.wg.Wait()
	}
	return nil
}
