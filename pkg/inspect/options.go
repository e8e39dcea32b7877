// SPDX-License-Identifier: Apache-2.0

package inspect

import (
	"context"
	"time"

	logging "github.com/loopholelabs/logging/types"

	"github.com/statefold/inspect/pkg/manager"
)

// Conn is the slice of the server manager client used by the serializer
// loop. A Conn is dialed for a single call and closed afterwards.
type Conn interface {
	InspectState(ctx context.Context, request *manager.InspectStateRequest) (*manager.InspectStateResponse, error)
	Close() error
}

// DialFunc establishes a fresh connection to the server manager.
type DialFunc func(ctx context.Context) (Conn, error)

const (
	DefaultDialTimeout = time.Second * 5
)

type Options struct {
	// Address is the server manager endpoint. Ignored when Dial is set.
	Address string

	// SessionID is attached to every outbound inspect call.
	SessionID string

	// QueueSize bounds the number of requests waiting for the serializer
	// loop. A full queue fails submissions immediately with OverloadedErr.
	QueueSize int

	// DialTimeout bounds connection establishment, defaulting to
	// DefaultDialTimeout. The reference behavior has no such bound; this is
	// a deliberate deviation so a dead endpoint cannot stall the loop
	// forever.
	DialTimeout time.Duration

	// CallTimeout bounds the inspect call itself. Zero means no timeout,
	// matching the reference behavior.
	CallTimeout time.Duration

	// Dial overrides the connection strategy, primarily for tests.
	Dial DialFunc

	Logger logging.Logger
}

func validOptions(options *Options) bool {
	return options != nil && options.SessionID != "" && options.QueueSize > 0 &&
		options.Logger != nil && (options.Address != "" || options.Dial != nil)
}
