// SPDX-License-Identifier: Apache-2.0

// Package manager provides the typed RPC surface of the server manager: a
// single-use gRPC client for the inspect state call and the service
// descriptor for the serving side.
package manager

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	ConnectErr = errors.New("unable to connect to server manager")
)

const (
	serviceName = "statefold.manager.v1.ServerManager"

	// InspectStateMethod is the full gRPC method name of the inspect call.
	InspectStateMethod = "/" + serviceName + "/InspectState"
)

// Client is a connection to a server manager. Callers dial one per call and
// discard it afterwards, so no state leaks between inspect calls.
type Client struct {
	conn *grpc.ClientConn
}

// Connect establishes a connection to the server manager at address. The
// dial blocks until the connection is ready or ctx expires.
func Connect(ctx context.Context, address string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)
	conn, err := grpc.DialContext(ctx, address, opts...)
	if err != nil {
		return nil, errors.Join(ConnectErr, err)
	}
	return &Client{conn: conn}, nil
}

// InspectState issues the inspect call and returns the server manager's
// response unmodified.
func (c *Client) InspectState(ctx context.Context, request *InspectStateRequest) (*InspectStateResponse, error) {
	response := new(InspectStateResponse)
	err := c.conn.Invoke(ctx, InspectStateMethod, request, response)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
