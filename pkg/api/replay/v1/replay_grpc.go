package replayv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "replay.v1.Replay"

const (
	Replay_StoreTransition_FullMethodName = "/" + serviceName + "/StoreTransition"
	Replay_StoreBatch_FullMethodName      = "/" + serviceName + "/StoreBatch"
	Replay_Sample_FullMethodName          = "/" + serviceName + "/Sample"
	Replay_ReportErrors_FullMethodName    = "/" + serviceName + "/ReportErrors"
	Replay_GetStats_FullMethodName        = "/" + serviceName + "/GetStats"
)

// ReplayClient is the client API for the Replay service.
type ReplayClient interface {
	StoreTransition(ctx context.Context, in *StoreTransitionRequest, opts ...grpc.CallOption) (*StoreTransitionResponse, error)
	StoreBatch(ctx context.Context, in *StoreBatchRequest, opts ...grpc.CallOption) (*StoreBatchResponse, error)
	Sample(ctx context.Context, in *SampleRequest, opts ...grpc.CallOption) (*SampleResponse, error)
	ReportErrors(ctx context.Context, in *ReportErrorsRequest, opts ...grpc.CallOption) (*ReportErrorsResponse, error)
	GetStats(ctx context.Context, in *GetStatsRequest, opts ...grpc.CallOption) (*StatsResponse, error)
}

type replayClient struct {
	cc grpc.ClientConnInterface
}

// NewReplayClient returns a client that encodes every call with Codec.
func NewReplayClient(cc grpc.ClientConnInterface) ReplayClient {
	return &replayClient{cc}
}

func (c *replayClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *replayClient) StoreTransition(ctx context.Context, in *StoreTransitionRequest, opts ...grpc.CallOption) (*StoreTransitionResponse, error) {
	out := new(StoreTransitionResponse)
	if err := c.invoke(ctx, Replay_StoreTransition_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *replayClient) StoreBatch(ctx context.Context, in *StoreBatchRequest, opts ...grpc.CallOption) (*StoreBatchResponse, error) {
	out := new(StoreBatchResponse)
	if err := c.invoke(ctx, Replay_StoreBatch_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *replayClient) Sample(ctx context.Context, in *SampleRequest, opts ...grpc.CallOption) (*SampleResponse, error) {
	out := new(SampleResponse)
	if err := c.invoke(ctx, Replay_Sample_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *replayClient) ReportErrors(ctx context.Context, in *ReportErrorsRequest, opts ...grpc.CallOption) (*ReportErrorsResponse, error) {
	out := new(ReportErrorsResponse)
	if err := c.invoke(ctx, Replay_ReportErrors_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *replayClient) GetStats(ctx context.Context, in *GetStatsRequest, opts ...grpc.CallOption) (*StatsResponse, error) {
	out := new(StatsResponse)
	if err := c.invoke(ctx, Replay_GetStats_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplayServer is the server API for the Replay service. Implementations
// must embed UnimplementedReplayServer.
type ReplayServer interface {
	StoreTransition(context.Context, *StoreTransitionRequest) (*StoreTransitionResponse, error)
	StoreBatch(context.Context, *StoreBatchRequest) (*StoreBatchResponse, error)
	Sample(context.Context, *SampleRequest) (*SampleResponse, error)
	ReportErrors(context.Context, *ReportErrorsRequest) (*ReportErrorsResponse, error)
	GetStats(context.Context, *GetStatsRequest) (*StatsResponse, error)
	mustEmbedUnimplementedReplayServer()
}

// UnimplementedReplayServer answers every method with codes.Unimplemented.
type UnimplementedReplayServer struct{}

func (UnimplementedReplayServer) StoreTransition(context.Context, *StoreTransitionRequest) (*StoreTransitionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StoreTransition not implemented")
}
func (UnimplementedReplayServer) StoreBatch(context.Context, *StoreBatchRequest) (*StoreBatchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StoreBatch not implemented")
}
func (UnimplementedReplayServer) Sample(context.Context, *SampleRequest) (*SampleResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Sample not implemented")
}
func (UnimplementedReplayServer) ReportErrors(context.Context, *ReportErrorsRequest) (*ReportErrorsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ReportErrors not implemented")
}
func (UnimplementedReplayServer) GetStats(context.Context, *GetStatsRequest) (*StatsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStats not implemented")
}
func (UnimplementedReplayServer) mustEmbedUnimplementedReplayServer() {}

// RegisterReplayServer registers srv on s. The server must be created with
// grpc.ForceServerCodec(Codec{}) or receive calls with the json subtype.
func RegisterReplayServer(s grpc.ServiceRegistrar, srv ReplayServer) {
	s.RegisterService(&Replay_ServiceDesc, srv)
}

func _Replay_StoreTransition_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StoreTransitionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReplayServer).StoreTransition(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Replay_StoreTransition_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReplayServer).StoreTransition(ctx, req.(*StoreTransitionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Replay_StoreBatch_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StoreBatchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReplayServer).StoreBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Replay_StoreBatch_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReplayServer).StoreBatch(ctx, req.(*StoreBatchRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Replay_Sample_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SampleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReplayServer).Sample(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Replay_Sample_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReplayServer).Sample(ctx, req.(*SampleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Replay_ReportErrors_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReportErrorsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReplayServer).ReportErrors(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Replay_ReportErrors_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReplayServer).ReportErrors(ctx, req.(*ReportErrorsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Replay_GetStats_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetStatsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReplayServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Replay_GetStats_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReplayServer).GetStats(ctx, req.(*GetStatsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Replay_ServiceDesc is the grpc.ServiceDesc for the Replay service.
var Replay_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ReplayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StoreTransition", Handler: _Replay_StoreTransition_Handler},
		{MethodName: "StoreBatch", Handler: _Replay_StoreBatch_Handler},
		{MethodName: "Sample", Handler: _Replay_Sample_Handler},
		{MethodName: "ReportErrors", Handler: _Replay_ReportErrors_Handler},
		{MethodName: "GetStats", Handler: _Replay_GetStats_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "replay/v1/replay.proto",
}
