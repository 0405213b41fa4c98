package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "launcher.v1.Launcher"

const (
	methodStart    = "/" + serviceName + "/Start"
	methodStop     = "/" + serviceName + "/Stop"
	methodRestart  = "/" + serviceName + "/Restart"
	methodStartAll = "/" + serviceName + "/StartAll"
	methodStopAll  = "/" + serviceName + "/StopAll"
	methodStatus   = "/" + serviceName + "/Status"
)

// LauncherServer is the server API for the launcher control service.
// Messages are protobuf well-known types so no generated code is needed.
type LauncherServer interface {
	Start(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Stop(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Restart(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	StartAll(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	StopAll(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterLauncherServer registers srv on s.
func RegisterLauncherServer(s grpc.ServiceRegistrar, srv LauncherServer) {
	s.RegisterService(&launcherServiceDesc, srv)
}

func nameHandler(method string, call func(LauncherServer, context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LauncherServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LauncherServer), ctx, req.(*wrapperspb.StringValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func emptyHandler(method string, call func(LauncherServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LauncherServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LauncherServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var launcherServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LauncherServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Start", Handler: nameHandler(methodStart, LauncherServer.Start)},
		{MethodName: "Stop", Handler: nameHandler(methodStop, LauncherServer.Stop)},
		{MethodName: "Restart", Handler: nameHandler(methodRestart, LauncherServer.Restart)},
		{MethodName: "StartAll", Handler: emptyHandler(methodStartAll, LauncherServer.StartAll)},
		{MethodName: "StopAll", Handler: emptyHandler(methodStopAll, LauncherServer.StopAll)},
		{MethodName: "Status", Handler: emptyHandler(methodStatus, LauncherServer.Status)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "launcher/v1/launcher.proto",
}
