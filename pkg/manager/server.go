// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"context"

	"google.golang.org/grpc"
)

// ServerManagerServer is implemented by anything that answers inspect state
// queries, typically the real server manager or a test double.
type ServerManagerServer interface {
	InspectState(ctx context.Context, request *InspectStateRequest) (*InspectStateResponse, error)
}

// RegisterServerManagerServer wires srv into s under the server manager
// service descriptor.
func RegisterServerManagerServer(s *grpc.Server, srv ServerManagerServer) {
	s.RegisterService(&ServerManagerServiceDesc, srv)
}

func _inspectStateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(InspectStateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ServerManagerServer).InspectState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: InspectStateMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ServerManagerServer).InspectState(ctx, req.(*InspectStateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ServerManagerServiceDesc describes the server manager service for manual
// registration on a *grpc.Server.
var ServerManagerServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ServerManagerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "InspectState",
			Handler:    _inspectStateHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}
