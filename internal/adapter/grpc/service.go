// Package grpc exposes the valuation engine as the fundlens.v1.ValuationService
// gRPC service.
//
// Messages are plain Go structs carried by a JSON codec registered under the
// content-subtype "json" (application/grpc+json), not protobuf. Client wraps a
// connection and sets that subtype on every call; any other client must call
// with grpc.CallContentSubtype("json"), or dial with
// grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")); with the default
// protobuf codec the call fails with codes.Internal.
package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "fundlens.v1.ValuationService"

const (
	GetPnLFullMethod             = "/" + ServiceName + "/GetPnL"
	ListPnLFullMethod            = "/" + ServiceName + "/ListPnL"
	GetFundValueFullMethod       = "/" + ServiceName + "/GetFundValue"
	GetOwnershipFullMethod       = "/" + ServiceName + "/GetOwnership"
	RecordContributionFullMethod = "/" + ServiceName + "/RecordContribution"
	BackfillFullMethod           = "/" + ServiceName + "/Backfill"
)

// ValuationServiceServer is the server API for the valuation service
type ValuationServiceServer interface {
	GetPnL(context.Context, *GetPnLRequest) (*GetPnLResponse, error)
	ListPnL(context.Context, *ListPnLRequest) (*ListPnLResponse, error)
	GetFundValue(context.Context, *GetFundValueRequest) (*GetFundValueResponse, error)
	GetOwnership(context.Context, *GetOwnershipRequest) (*GetOwnershipResponse, error)
	RecordContribution(context.Context, *RecordContributionRequest) (*RecordContributionResponse, error)
	Backfill(context.Context, *BackfillRequest) (*BackfillResponse, error)
}

// RegisterValuationServiceServer attaches srv to a gRPC server
func RegisterValuationServiceServer(s grpc.ServiceRegistrar, srv ValuationServiceServer) {
	s.RegisterService(&ValuationServiceDesc, srv)
}

// ValuationServiceDesc describes the service for grpc.Server.RegisterService
var ValuationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ValuationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetPnL",
			Handler: unaryHandler(GetPnLFullMethod, func(s ValuationServiceServer, ctx context.Context, in *GetPnLRequest) (*GetPnLResponse, error) {
				return s.GetPnL(ctx, in)
			}),
		},
		{
			MethodName: "ListPnL",
			Handler: unaryHandler(ListPnLFullMethod, func(s ValuationServiceServer, ctx context.Context, in *ListPnLRequest) (*ListPnLResponse, error) {
				return s.ListPnL(ctx, in)
			}),
		},
		{
			MethodName: "GetFundValue",
			Handler: unaryHandler(GetFundValueFullMethod, func(s ValuationServiceServer, ctx context.Context, in *GetFundValueRequest) (*GetFundValueResponse, error) {
				return s.GetFundValue(ctx, in)
			}),
		},
		{
			MethodName: "GetOwnership",
			Handler: unaryHandler(GetOwnershipFullMethod, func(s ValuationServiceServer, ctx context.Context, in *GetOwnershipRequest) (*GetOwnershipResponse, error) {
				return s.GetOwnership(ctx, in)
			}),
		},
		{
			MethodName: "RecordContribution",
			Handler: unaryHandler(RecordContributionFullMethod, func(s ValuationServiceServer, ctx context.Context, in *RecordContributionRequest) (*RecordContributionResponse, error) {
				return s.RecordContribution(ctx, in)
			}),
		},
		{
			MethodName: "Backfill",
			Handler: unaryHandler(BackfillFullMethod, func(s ValuationServiceServer, ctx context.Context, in *BackfillRequest) (*BackfillResponse, error) {
				return s.Backfill(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fundlens/v1/valuation.proto",
}

// unaryHandler decodes the request and runs the call through the interceptor chain
func unaryHandler[Req, Resp any](fullMethod string, call func(ValuationServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ValuationServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ValuationServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client is a typed client for the valuation service
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection; every call uses the JSON codec
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out interface{}, opts ...grpc.CallOption) error {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *Client) GetPnL(ctx context.Context, in *GetPnLRequest, opts ...grpc.CallOption) (*GetPnLResponse, error) {
	out := new(GetPnLResponse)
	if err := c.invoke(ctx, GetPnLFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListPnL(ctx context.Context, in *ListPnLRequest, opts ...grpc.CallOption) (*ListPnLResponse, error) {
	out := new(ListPnLResponse)
	if err := c.invoke(ctx, ListPnLFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetFundValue(ctx context.Context, in *GetFundValueRequest, opts ...grpc.CallOption) (*GetFundValueResponse, error) {
	out := new(GetFundValueResponse)
	if err := c.invoke(ctx, GetFundValueFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOwnership(ctx context.Context, in *GetOwnershipRequest, opts ...grpc.CallOption) (*GetOwnershipResponse, error) {
	out := new(GetOwnershipResponse)
	if err := c.invoke(ctx, GetOwnershipFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RecordContribution(ctx context.Context, in *RecordContributionRequest, opts ...grpc.CallOption) (*RecordContributionResponse, error) {
	out := new(RecordContributionResponse)
	if err := c.invoke(ctx, RecordContributionFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Backfill(ctx context.Context, in *BackfillRequest, opts ...grpc.CallOption) (*BackfillResponse, error) {
	out := new(BackfillResponse)
	if err := c.invoke(ctx, BackfillFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
