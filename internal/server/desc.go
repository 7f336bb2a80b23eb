package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "matcher.v1.MatcherService"

// Full method names, usable with grpc.ClientConn.Invoke.
const (
	MethodReconcile        = "/" + ServiceName + "/Reconcile"
	MethodCompare          = "/" + ServiceName + "/Compare"
	MethodGetComparison    = "/" + ServiceName + "/GetComparison"
	MethodListComparisons  = "/" + ServiceName + "/ListComparisons"
	MethodExportComparison = "/" + ServiceName + "/ExportComparison"
)

// MatcherServiceServer is served over well-known protobuf types so no generated code
// is needed. Request and response shapes are documented on each method.
type MatcherServiceServer interface {
	// Reconcile takes {invoice_data, po_data} and returns a comparison.
	Reconcile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Compare takes {invoice_path, po_path} and returns a comparison.
	Compare(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// GetComparison takes a comparison id.
	GetComparison(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// ListComparisons takes {status, limit} and returns {comparisons: [...]}.
	ListComparisons(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ExportComparison takes a comparison id and returns XLSX bytes.
	ExportComparison(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

func RegisterMatcherServiceServer(s grpc.ServiceRegistrar, srv MatcherServiceServer) {
	s.RegisterService(&MatcherServiceDesc, srv)
}

var MatcherServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatcherServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Reconcile", Handler: reconcileHandler},
		{MethodName: "Compare", Handler: compareHandler},
		{MethodName: "GetComparison", Handler: getComparisonHandler},
		{MethodName: "ListComparisons", Handler: listComparisonsHandler},
		{MethodName: "ExportComparison", Handler: exportComparisonHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "matcher/v1/matcher.proto",
}

func reconcileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatcherServiceServer).Reconcile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodReconcile}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatcherServiceServer).Reconcile(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func compareHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatcherServiceServer).Compare(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodCompare}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatcherServiceServer).Compare(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getComparisonHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatcherServiceServer).GetComparison(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetComparison}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatcherServiceServer).GetComparison(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listComparisonsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatcherServiceServer).ListComparisons(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodListComparisons}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatcherServiceServer).ListComparisons(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func exportComparisonHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatcherServiceServer).ExportComparison(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodExportComparison}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatcherServiceServer).ExportComparison(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
