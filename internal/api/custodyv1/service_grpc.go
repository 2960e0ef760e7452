package custodyv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "custody.v1.CustodyService"

const (
	CustodyService_CreateUser_FullMethodName         = "/" + ServiceName + "/CreateUser"
	CustodyService_CreateCase_FullMethodName         = "/" + ServiceName + "/CreateCase"
	CustodyService_CreateEntry_FullMethodName        = "/" + ServiceName + "/CreateEntry"
	CustodyService_AddEvidence_FullMethodName        = "/" + ServiceName + "/AddEvidence"
	CustodyService_SetEvidenceSummary_FullMethodName = "/" + ServiceName + "/SetEvidenceSummary"
	CustodyService_SubmitEntry_FullMethodName        = "/" + ServiceName + "/SubmitEntry"
	CustodyService_CancelJob_FullMethodName          = "/" + ServiceName + "/CancelJob"
	CustodyService_GetJob_FullMethodName             = "/" + ServiceName + "/GetJob"
	CustodyService_ListEvents_FullMethodName         = "/" + ServiceName + "/ListEvents"
	CustodyService_WatchJob_FullMethodName           = "/" + ServiceName + "/WatchJob"
)

// CustodyServiceServer is the server API for CustodyService.
type CustodyServiceServer interface {
	CreateUser(context.Context, *CreateUserRequest) (*CreateUserResponse, error)
	CreateCase(context.Context, *CreateCaseRequest) (*CreateCaseResponse, error)
	CreateEntry(context.Context, *CreateEntryRequest) (*CreateEntryResponse, error)
	AddEvidence(context.Context, *AddEvidenceRequest) (*AddEvidenceResponse, error)
	SetEvidenceSummary(context.Context, *SetEvidenceSummaryRequest) (*SetEvidenceSummaryResponse, error)
	SubmitEntry(context.Context, *SubmitEntryRequest) (*SubmitEntryResponse, error)
	CancelJob(context.Context, *CancelJobRequest) (*CancelJobResponse, error)
	GetJob(context.Context, *GetJobRequest) (*GetJobResponse, error)
	ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error)
	// WatchJob streams the job's current state and then every transition until it
	// reaches a terminal status.
	WatchJob(*WatchJobRequest, CustodyService_WatchJobServer) error
}

type CustodyService_WatchJobServer = grpc.ServerStreamingServer[Job]

// UnimplementedCustodyServiceServer returns Unimplemented for every method.
type UnimplementedCustodyServiceServer struct{}

func (UnimplementedCustodyServiceServer) CreateUser(context.Context, *CreateUserRequest) (*CreateUserResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateUser not implemented")
}

func (UnimplementedCustodyServiceServer) CreateCase(context.Context, *CreateCaseRequest) (*CreateCaseResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateCase not implemented")
}

func (UnimplementedCustodyServiceServer) CreateEntry(context.Context, *CreateEntryRequest) (*CreateEntryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateEntry not implemented")
}

func (UnimplementedCustodyServiceServer) AddEvidence(context.Context, *AddEvidenceRequest) (*AddEvidenceResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AddEvidence not implemented")
}

func (UnimplementedCustodyServiceServer) SetEvidenceSummary(context.Context, *SetEvidenceSummaryRequest) (*SetEvidenceSummaryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetEvidenceSummary not implemented")
}

func (UnimplementedCustodyServiceServer) SubmitEntry(context.Context, *SubmitEntryRequest) (*SubmitEntryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitEntry not implemented")
}

func (UnimplementedCustodyServiceServer) CancelJob(context.Context, *CancelJobRequest) (*CancelJobResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelJob not implemented")
}

func (UnimplementedCustodyServiceServer) GetJob(context.Context, *GetJobRequest) (*GetJobResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetJob not implemented")
}

func (UnimplementedCustodyServiceServer) ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListEvents not implemented")
}

func (UnimplementedCustodyServiceServer) WatchJob(*WatchJobRequest, CustodyService_WatchJobServer) error {
	return status.Error(codes.Unimplemented, "method WatchJob not implemented")
}

func RegisterCustodyServiceServer(s grpc.ServiceRegistrar, srv CustodyServiceServer) {
	s.RegisterService(&CustodyService_ServiceDesc, srv)
}

func _CustodyService_CreateUser_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CreateUserRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CustodyServiceServer).CreateUser(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CustodyService_CreateUser_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CustodyServiceServer).CreateUser(ctx, req.(*CreateUserRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CustodyService_CreateCase_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CreateCaseRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CustodyServiceServer).CreateCase(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CustodyService_CreateCase_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CustodyServiceServer).CreateCase(ctx, req.(*CreateCaseRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CustodyService_CreateEntry_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CreateEntryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CustodyServiceServer).CreateEntry(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CustodyService_CreateEntry_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CustodyServiceServer).CreateEntry(ctx, req.(*CreateEntryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CustodyService_AddEvidence_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AddEvidenceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CustodyServiceServer).AddEvidence(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CustodyService_AddEvidence_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CustodyServiceServer).AddEvidence(ctx, req.(*AddEvidenceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CustodyService_SetEvidenceSummary_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SetEvidenceSummaryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CustodyServiceServer).SetEvidenceSummary(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CustodyService_SetEvidenceSummary_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CustodyServiceServer).SetEvidenceSummary(ctx, req.(*SetEvidenceSummaryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CustodyService_SubmitEntry_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SubmitEntryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CustodyServiceServer).SubmitEntry(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CustodyService_SubmitEntry_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CustodyServiceServer).SubmitEntry(ctx, req.(*SubmitEntryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CustodyService_CancelJob_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CancelJobRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CustodyServiceServer).CancelJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CustodyService_CancelJob_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CustodyServiceServer).CancelJob(ctx, req.(*CancelJobRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CustodyService_GetJob_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetJobRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CustodyServiceServer).GetJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CustodyService_GetJob_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CustodyServiceServer).GetJob(ctx, req.(*GetJobRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CustodyService_ListEvents_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListEventsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CustodyServiceServer).ListEvents(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CustodyService_ListEvents_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CustodyServiceServer).ListEvents(ctx, req.(*ListEventsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CustodyService_WatchJob_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(WatchJobRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(CustodyServiceServer).WatchJob(m, &grpc.GenericServerStream[WatchJobRequest, Job]{ServerStream: stream})
}

// CustodyService_ServiceDesc is the grpc.ServiceDesc for CustodyService.
var CustodyService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CustodyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateUser", Handler: _CustodyService_CreateUser_Handler},
		{MethodName: "CreateCase", Handler: _CustodyService_CreateCase_Handler},
		{MethodName: "CreateEntry", Handler: _CustodyService_CreateEntry_Handler},
		{MethodName: "AddEvidence", Handler: _CustodyService_AddEvidence_Handler},
		{MethodName: "SetEvidenceSummary", Handler: _CustodyService_SetEvidenceSummary_Handler},
		{MethodName: "SubmitEntry", Handler: _CustodyService_SubmitEntry_Handler},
		{MethodName: "CancelJob", Handler: _CustodyService_CancelJob_Handler},
		{MethodName: "GetJob", Handler: _CustodyService_GetJob_Handler},
		{MethodName: "ListEvents", Handler: _CustodyService_ListEvents_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchJob", Handler: _CustodyService_WatchJob_Handler, ServerStreams: true},
	},
	Metadata: "custody/v1/custody.proto",
}

// CustodyServiceClient is the client API for CustodyService. Every call uses the
// JSON codec.
type CustodyServiceClient interface {
	CreateUser(ctx context.Context, in *CreateUserRequest, opts ...grpc.CallOption) (*CreateUserResponse, error)
	CreateCase(ctx context.Context, in *CreateCaseRequest, opts ...grpc.CallOption) (*CreateCaseResponse, error)
	CreateEntry(ctx context.Context, in *CreateEntryRequest, opts ...grpc.CallOption) (*CreateEntryResponse, error)
	AddEvidence(ctx context.Context, in *AddEvidenceRequest, opts ...grpc.CallOption) (*AddEvidenceResponse, error)
	SetEvidenceSummary(ctx context.Context, in *SetEvidenceSummaryRequest, opts ...grpc.CallOption) (*SetEvidenceSummaryResponse, error)
	SubmitEntry(ctx context.Context, in *SubmitEntryRequest, opts ...grpc.CallOption) (*SubmitEntryResponse, error)
	CancelJob(ctx context.Context, in *CancelJobRequest, opts ...grpc.CallOption) (*CancelJobResponse, error)
	GetJob(ctx context.Context, in *GetJobRequest, opts ...grpc.CallOption) (*GetJobResponse, error)
	ListEvents(ctx context.Context, in *ListEventsRequest, opts ...grpc.CallOption) (*ListEventsResponse, error)
	WatchJob(ctx context.Context, in *WatchJobRequest, opts ...grpc.CallOption) (CustodyService_WatchJobClient, error)
}

type CustodyService_WatchJobClient = grpc.ServerStreamingClient[Job]

type custodyServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCustodyServiceClient(cc grpc.ClientConnInterface) CustodyServiceClient {
	return &custodyServiceClient{cc: cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{CallOption()}, opts...)
}

func (c *custodyServiceClient) CreateUser(ctx context.Context, in *CreateUserRequest, opts ...grpc.CallOption) (*CreateUserResponse, error) {
	out := new(CreateUserResponse)
	if err := c.cc.Invoke(ctx, CustodyService_CreateUser_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *custodyServiceClient) CreateCase(ctx context.Context, in *CreateCaseRequest, opts ...grpc.CallOption) (*CreateCaseResponse, error) {
	out := new(CreateCaseResponse)
	if err := c.cc.Invoke(ctx, CustodyService_CreateCase_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *custodyServiceClient) CreateEntry(ctx context.Context, in *CreateEntryRequest, opts ...grpc.CallOption) (*CreateEntryResponse, error) {
	out := new(CreateEntryResponse)
	if err := c.cc.Invoke(ctx, CustodyService_CreateEntry_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *custodyServiceClient) AddEvidence(ctx context.Context, in *AddEvidenceRequest, opts ...grpc.CallOption) (*AddEvidenceResponse, error) {
	out := new(AddEvidenceResponse)
	if err := c.cc.Invoke(ctx, CustodyService_AddEvidence_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *custodyServiceClient) SetEvidenceSummary(ctx context.Context, in *SetEvidenceSummaryRequest, opts ...grpc.CallOption) (*SetEvidenceSummaryResponse, error) {
	out := new(SetEvidenceSummaryResponse)
	if err := c.cc.Invoke(ctx, CustodyService_SetEvidenceSummary_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *custodyServiceClient) SubmitEntry(ctx context.Context, in *SubmitEntryRequest, opts ...grpc.CallOption) (*SubmitEntryResponse, error) {
	out := new(SubmitEntryResponse)
	if err := c.cc.Invoke(ctx, CustodyService_SubmitEntry_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *custodyServiceClient) CancelJob(ctx context.Context, in *CancelJobRequest, opts ...grpc.CallOption) (*CancelJobResponse, error) {
	out := new(CancelJobResponse)
	if err := c.cc.Invoke(ctx, CustodyService_CancelJob_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *custodyServiceClient) GetJob(ctx context.Context, in *GetJobRequest, opts ...grpc.CallOption) (*GetJobResponse, error) {
	out := new(GetJobResponse)
	if err := c.cc.Invoke(ctx, CustodyService_GetJob_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *custodyServiceClient) ListEvents(ctx context.Context, in *ListEventsRequest, opts ...grpc.CallOption) (*ListEventsResponse, error) {
	out := new(ListEventsResponse)
	if err := c.cc.Invoke(ctx, CustodyService_ListEvents_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *custodyServiceClient) WatchJob(ctx context.Context, in *WatchJobRequest, opts ...grpc.CallOption) (CustodyService_WatchJobClient, error) {
	stream, err := c.cc.NewStream(ctx, &CustodyService_ServiceDesc.Streams[0], CustodyService_WatchJob_FullMethodName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchJobRequest, Job]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
