// SPDX-License-Identifier: Apache-2.0

package inspect

import (
	"context"
	"errors"

	"github.com/google/uuid"
	logging "github.com/loopholelabs/logging/types"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/statefold/inspect/pkg/manager"
)

// loop owns the only path to the server manager. It serves queued requests
// strictly in arrival order, one at a time, over a fresh connection per
// call. A failed request resolves only the caller that submitted it; the
// loop itself exits only when the client is closed.
func (c *Client) loop() {
	var req *request
	for {
		select {
		case <-c.ctx.Done():
			goto OUT
		case req = <-c.queue:
		}
		c.serve(req)
	}
OUT:
	c.logger.Info().Msg("shutting down serializer loop")
	c.drain()
	c.wg.Done()
}

func (c *Client) serve(req *request) {
	requestsServed.Inc()

	dialCtx, dialCancel := context.WithTimeout(c.ctx, c.dialTimeout)
	conn, err := c.dial(dialCtx)
	dialCancel()
	if err != nil {
		if c.ctx.Err() != nil {
			respond(c.logger, req, result{err: ClosedErr})
			return
		}
		connectFailures.Inc()
		c.logger.Error().Err(err).Msg("unable to connect to server manager")
		respond(c.logger, req, result{err: errors.Join(ConnectionFailedErr, err)})
		return
	}

	requestID := uuid.New().String()
	callCtx := metadata.AppendToOutgoingContext(c.ctx, requestIDKey, requestID)
	if c.callTimeout > 0 {
		var callCancel context.CancelFunc
		callCtx, callCancel = context.WithTimeout(callCtx, c.callTimeout)
		defer callCancel()
	}

	c.logger.Debug().Str(requestIDKey, requestID).Msg("calling inspect state")
	response, err := conn.InspectState(callCtx, &manager.InspectStateRequest{
		SessionID:    c.sessionID,
		QueryPayload: req.payload,
	})
	_ = conn.Close()
	if err != nil {
		if c.ctx.Err() != nil {
			respond(c.logger, req, result{err: ClosedErr})
			return
		}
		callFailures.Inc()
		c.logger.Error().Str(requestIDKey, requestID).Err(err).Msg("inspect state call failed")
		respond(c.logger, req, result{err: errors.Join(CallFailedErr, errors.New(status.Convert(err).Message()))})
		return
	}

	c.logger.Debug().Str(requestIDKey, requestID).Str("status", response.Status.String()).Msg("inspect state call completed")
	respond(c.logger, req, result{response: response})
}

// drain resolves every request still sitting in the queue after the loop
// has stopped, so no caller is ever left waiting on a slot that will never
// be written.
func (c *Client) drain() {
	for {
		select {
		case req := <-c.queue:
			respond(c.logger, req, result{err: ClosedErr})
		default:
			return
		}
	}
}

// respond writes the terminal result into the request's single-use slot.
// The slot is buffered, so the send succeeds even when the caller has
// stopped waiting; the default branch only guards against a double write.
func respond(logger logging.Logger, req *request, res result) {
	select {
	case req.response <- res:
	default:
		logger.Warn().Msg("response slot already written")
	}
}
