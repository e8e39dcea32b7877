// SPDX-License-Identifier: Apache-2.0

// Package inspect mediates between many concurrent callers and a server
// manager that must only ever be driven by one in-flight request at a
// time. Submissions go through a bounded queue consumed by a single
// serializer loop, which dials a fresh connection per call.
package inspect

import (
	"errors"

	"github.com/VictoriaMetrics/metrics"

	"github.com/statefold/inspect/pkg/manager"
)

var (
	OptionsErr          = errors.New("invalid options")
	OverloadedErr       = errors.New("inspect queue is full")
	ConnectionFailedErr = errors.New("unable to connect to server manager")
	CallFailedErr       = errors.New("inspect call failed")
	ClosedErr           = errors.New("inspect client is closed")
)

// requestIDKey is the outbound metadata key correlating a call with the
// server manager's logs.
const requestIDKey = "request-id"

var (
	requestsServed  = metrics.GetOrCreateCounter("inspect_requests_total")
	requestsDropped = metrics.GetOrCreateCounter("inspect_requests_dropped_total")
	connectFailures = metrics.GetOrCreateCounter("inspect_connect_failures_total")
	callFailures    = metrics.GetOrCreateCounter("inspect_call_failures_total")
	abandonedWaits  = metrics.GetOrCreateCounter("inspect_abandoned_waits_total")
)

type result struct {
	response *manager.InspectStateResponse
	err      error
}

// request pairs one payload with its single-use response slot. The slot is
// buffered so the loop's write never blocks, and it is written exactly
// once.
type request struct {
	payload  []byte
	response chan result
}
