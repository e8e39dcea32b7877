// SPDX-License-Identifier: Apache-2.0

package inspect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/loopholelabs/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/statefold/inspect/pkg/manager"
)

func TestLoopFIFO(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeManager{
		gate:    make(chan struct{}),
		started: make(chan struct{}, 8),
	}
	c, err := New(testOptions(t, f, 8))
	require.NoError(t, err)

	results := make(chan error, 5)
	submit := func(payload string) {
		_, err := c.Inspect(context.Background(), []byte(payload))
		results <- err
	}

	// The loop holds p1 inside the gated dial while p2..p5 are enqueued one
	// by one, pinning the arrival order.
	go submit("p1")
	<-f.started
	for i, payload := range []string{"p2", "p3", "p4", "p5"} {
		depth := i + 1
		go submit(payload)
		require.Eventually(t, func() bool { return len(c.queue) == depth }, time.Second, time.Millisecond)
	}

	close(f.gate)
	for i := 0; i < 5; i++ {
		require.NoError(t, <-results)
	}

	served := f.servedPayloads()
	require.Len(t, served, 5)
	for i, expected := range []string{"p1", "p2", "p3", "p4", "p5"} {
		assert.Equal(t, []byte(expected), served[i])
	}

	// One fresh connection per call, every one closed.
	f.mu.Lock()
	assert.Equal(t, 5, f.dials)
	assert.Equal(t, 5, f.closes)
	f.mu.Unlock()

	require.NoError(t, c.Close())
}

func TestLoopConnectionFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeManager{
		dialErrs: []error{errors.New("connection refused")},
	}
	c, err := New(testOptions(t, f, 4))
	require.NoError(t, err)

	_, err = c.Inspect(context.Background(), []byte("unreachable"))
	require.ErrorIs(t, err, ConnectionFailedErr)
	assert.Contains(t, err.Error(), "connection refused")

	// The loop stays healthy and serves the next request.
	response, err := c.Inspect(context.Background(), []byte("reachable"))
	require.NoError(t, err)
	require.Len(t, response.Reports, 1)
	assert.Equal(t, []byte("reachable"), response.Reports[0].Payload)

	require.NoError(t, c.Close())
}

func TestLoopCallFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeManager{
		inspect: func(request *manager.InspectStateRequest) (*manager.InspectStateResponse, error) {
			if string(request.QueryPayload) == "bad" {
				return nil, status.Error(codes.InvalidArgument, "session not found")
			}
			return &manager.InspectStateResponse{Status: manager.CompletionStatusAccepted}, nil
		},
	}
	c, err := New(testOptions(t, f, 4))
	require.NoError(t, err)

	_, err = c.Inspect(context.Background(), []byte("bad"))
	require.ErrorIs(t, err, CallFailedErr)
	assert.Contains(t, err.Error(), "session not found")

	response, err := c.Inspect(context.Background(), []byte("good"))
	require.NoError(t, err)
	assert.Equal(t, manager.CompletionStatusAccepted, response.Status)

	require.NoError(t, c.Close())
}

type recordingManager struct {
	mu         sync.Mutex
	requestIDs []string
}

func (m *recordingManager) InspectState(ctx context.Context, request *manager.InspectStateRequest) (*manager.InspectStateResponse, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		m.mu.Lock()
		m.requestIDs = append(m.requestIDs, md.Get("request-id")...)
		m.mu.Unlock()
	}
	return &manager.InspectStateResponse{
		SessionID: request.SessionID,
		Status:    manager.CompletionStatusAccepted,
		Reports: []*manager.Report{
			{Payload: request.QueryPayload},
		},
	}, nil
}

func TestLoopEndToEnd(t *testing.T) {
	srv := new(recordingManager)
	lis := bufconn.Listen(1024 * 1024)
	server := grpc.NewServer()
	manager.RegisterServerManagerServer(server, srv)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	c, err := New(&Options{
		SessionID: "default_session",
		QueueSize: 4,
		Dial: func(ctx context.Context) (Conn, error) {
			return manager.Connect(ctx, "passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}))
		},
		Logger: logging.Test(t, logging.Zerolog, t.Name()),
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		payload := []byte(fmt.Sprintf("query %d", i))
		response, err := c.Inspect(context.Background(), payload)
		require.NoError(t, err)
		assert.Equal(t, "default_session", response.SessionID)
		require.Len(t, response.Reports, 1)
		assert.Equal(t, payload, response.Reports[0].Payload)
	}

	require.NoError(t, c.Close())

	// Every call carried a fresh request identifier.
	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Len(t, srv.requestIDs, 2)
	assert.NotEqual(t, srv.requestIDs[0], srv.requestIDs[1])
	for _, id := range srv.requestIDs {
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
	}
}
