package daemonv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	serviceName             = "zr.daemon.v1.DaemonService"
	methodPing              = "/" + serviceName + "/Ping"
	methodStatus            = "/" + serviceName + "/Status"
	methodShutdown          = "/" + serviceName + "/Shutdown"
	methodGetGraph          = "/" + serviceName + "/GetGraph"
	methodGetEnvironment    = "/" + serviceName + "/GetEnvironment"
	methodGetInputHash      = "/" + serviceName + "/GetInputHash"
	streamMethodExecuteTask = "ExecuteTask"
)

// DaemonServiceClient is the client API for DaemonService.
type DaemonServiceClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	Status(ctx context.Context, in *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error)
	Shutdown(ctx context.Context, in *ShutdownRequest, opts ...grpc.CallOption) (*ShutdownResponse, error)
	GetGraph(ctx context.Context, in *GetGraphRequest, opts ...grpc.CallOption) (*GetGraphResponse, error)
	GetEnvironment(ctx context.Context, in *GetEnvironmentRequest, opts ...grpc.CallOption) (*GetEnvironmentResponse, error)
	GetInputHash(ctx context.Context, in *GetInputHashRequest, opts ...grpc.CallOption) (*GetInputHashResponse, error)
	ExecuteTask(ctx context.Context, in *ExecuteTaskRequest, opts ...grpc.CallOption) (DaemonService_ExecuteTaskClient, error)
}

type daemonServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDaemonServiceClient creates a client stub for DaemonService over cc.
func NewDaemonServiceClient(cc grpc.ClientConnInterface) DaemonServiceClient {
	return &daemonServiceClient{cc: cc}
}

func (c *daemonServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.cc.Invoke(ctx, methodPing, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *daemonServiceClient) Status(ctx context.Context, in *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	out := new(StatusResponse)
	if err := c.cc.Invoke(ctx, methodStatus, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *daemonServiceClient) Shutdown(ctx context.Context, in *ShutdownRequest, opts ...grpc.CallOption) (*ShutdownResponse, error) {
	out := new(ShutdownResponse)
	if err := c.cc.Invoke(ctx, methodShutdown, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *daemonServiceClient) GetGraph(ctx context.Context, in *GetGraphRequest, opts ...grpc.CallOption) (*GetGraphResponse, error) {
	out := new(GetGraphResponse)
	if err := c.cc.Invoke(ctx, methodGetGraph, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *daemonServiceClient) GetEnvironment(ctx context.Context, in *GetEnvironmentRequest, opts ...grpc.CallOption) (*GetEnvironmentResponse, error) {
	out := new(GetEnvironmentResponse)
	if err := c.cc.Invoke(ctx, methodGetEnvironment, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *daemonServiceClient) GetInputHash(ctx context.Context, in *GetInputHashRequest, opts ...grpc.CallOption) (*GetInputHashResponse, error) {
	out := new(GetInputHashResponse)
	if err := c.cc.Invoke(ctx, methodGetInputHash, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *daemonServiceClient) ExecuteTask(ctx context.Context, in *ExecuteTaskRequest, opts ...grpc.CallOption) (DaemonService_ExecuteTaskClient, error) {
	stream, err := c.cc.NewStream(ctx, &daemonServiceServiceDesc.Streams[0], "/"+serviceName+"/"+streamMethodExecuteTask, opts...)
	if err != nil {
		return nil, err
	}
	x := &daemonServiceExecuteTaskClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// DaemonService_ExecuteTaskClient is the client-side streaming handle for ExecuteTask.
type DaemonService_ExecuteTaskClient interface {
	Recv() (*ExecuteTaskResponse, error)
	grpc.ClientStream
}

type daemonServiceExecuteTaskClient struct {
	grpc.ClientStream
}

func (x *daemonServiceExecuteTaskClient) Recv() (*ExecuteTaskResponse, error) {
	m := new(ExecuteTaskResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// DaemonServiceServer is the server API for DaemonService.
type DaemonServiceServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Status(context.Context, *StatusRequest) (*StatusResponse, error)
	Shutdown(context.Context, *ShutdownRequest) (*ShutdownResponse, error)
	GetGraph(context.Context, *GetGraphRequest) (*GetGraphResponse, error)
	GetEnvironment(context.Context, *GetEnvironmentRequest) (*GetEnvironmentResponse, error)
	GetInputHash(context.Context, *GetInputHashRequest) (*GetInputHashResponse, error)
	ExecuteTask(*ExecuteTaskRequest, DaemonService_ExecuteTaskServer) error
}

// UnimplementedDaemonServiceServer must be embedded for forward compatibility.
type UnimplementedDaemonServiceServer struct{}

func (UnimplementedDaemonServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

func (UnimplementedDaemonServiceServer) Status(context.Context, *StatusRequest) (*StatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Status not implemented")
}

func (UnimplementedDaemonServiceServer) Shutdown(context.Context, *ShutdownRequest) (*ShutdownResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Shutdown not implemented")
}

func (UnimplementedDaemonServiceServer) GetGraph(context.Context, *GetGraphRequest) (*GetGraphResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetGraph not implemented")
}

func (UnimplementedDaemonServiceServer) GetEnvironment(context.Context, *GetEnvironmentRequest) (*GetEnvironmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetEnvironment not implemented")
}

func (UnimplementedDaemonServiceServer) GetInputHash(context.Context, *GetInputHashRequest) (*GetInputHashResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetInputHash not implemented")
}

func (UnimplementedDaemonServiceServer) ExecuteTask(*ExecuteTaskRequest, DaemonService_ExecuteTaskServer) error {
	return status.Error(codes.Unimplemented, "method ExecuteTask not implemented")
}

// DaemonService_ExecuteTaskServer is the server-side streaming handle for ExecuteTask.
type DaemonService_ExecuteTaskServer interface {
	Send(*ExecuteTaskResponse) error
	grpc.ServerStream
}

type daemonServiceExecuteTaskServer struct {
	grpc.ServerStream
}

func (x *daemonServiceExecuteTaskServer) Send(m *ExecuteTaskResponse) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterDaemonServiceServer registers srv with r, mirroring protoc-gen-go-grpc's
// generated registration helper.
func RegisterDaemonServiceServer(r grpc.ServiceRegistrar, srv DaemonServiceServer) {
	r.RegisterService(&daemonServiceServiceDesc, srv)
}

func pingHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DaemonServiceServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodPing}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DaemonServiceServer).Ping(ctx, req.(*PingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func statusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DaemonServiceServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodStatus}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DaemonServiceServer).Status(ctx, req.(*StatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func shutdownHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ShutdownRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DaemonServiceServer).Shutdown(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodShutdown}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DaemonServiceServer).Shutdown(ctx, req.(*ShutdownRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getGraphHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetGraphRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DaemonServiceServer).GetGraph(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetGraph}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DaemonServiceServer).GetGraph(ctx, req.(*GetGraphRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getEnvironmentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetEnvironmentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DaemonServiceServer).GetEnvironment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetEnvironment}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DaemonServiceServer).GetEnvironment(ctx, req.(*GetEnvironmentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getInputHashHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetInputHashRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DaemonServiceServer).GetInputHash(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetInputHash}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DaemonServiceServer).GetInputHash(ctx, req.(*GetInputHashRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func executeTaskHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(ExecuteTaskRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(DaemonServiceServer).ExecuteTask(m, &daemonServiceExecuteTaskServer{stream})
}

var daemonServiceServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DaemonServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: pingHandler},
		{MethodName: "Status", Handler: statusHandler},
		{MethodName: "Shutdown", Handler: shutdownHandler},
		{MethodName: "GetGraph", Handler: getGraphHandler},
		{MethodName: "GetEnvironment", Handler: getEnvironmentHandler},
		{MethodName: "GetInputHash", Handler: getInputHashHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    streamMethodExecuteTask,
			Handler:       executeTaskHandler,
			ServerStreams: true,
		},
	},
	Metadata: "zr/daemon/v1/daemon.proto",
}
