package service

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

// SignalServiceName is the fully qualified gRPC service name. Requests and responses
// are google.protobuf.Struct values carrying the JSON shape of the HTTP API.
const SignalServiceName = "coinpree.SignalService"

const (
	MethodGetSignals              = "/" + SignalServiceName + "/GetSignals"
	MethodGetCrossoverSignals     = "/" + SignalServiceName + "/GetCrossoverSignals"
	MethodGetShortReversalSignals = "/" + SignalServiceName + "/GetShortReversalSignals"
	MethodGetStructureSignals     = "/" + SignalServiceName + "/GetStructureSignals"
	MethodSubscribe               = "/" + SignalServiceName + "/Subscribe"
)

// SignalRequest is the decoded form of a request Struct. Every field is optional.
type SignalRequest struct {
	Exchange  string `json:"exchange,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Strategy  string `json:"strategy,omitempty"`
}

// GRPCServer exposes an Engine over gRPC.
type GRPCServer struct {
	engine *Engine
}

func NewGRPCServer(engine *Engine) *GRPCServer {
	return &GRPCServer{engine: engine}
}

// RegisterSignalService registers srv on s.
func RegisterSignalService(s grpc.ServiceRegistrar, srv *GRPCServer) {
	s.RegisterService(&signalServiceDesc, srv)
}

type signalsFunc func(ctx context.Context, req SignalRequest) []models.Signal

func (s *GRPCServer) scanFor(method string) signalsFunc {
	e := s.engine
	switch method {
	case "GetSignals":
		return func(ctx context.Context, r SignalRequest) []models.Signal { return e.GetSignals(ctx, r.Exchange, r.Timeframe) }
	case "GetCrossoverSignals":
		return func(ctx context.Context, r SignalRequest) []models.Signal { return e.GetCrossoverSignals(ctx, r.Timeframe) }
	case "GetShortReversalSignals":
		return func(ctx context.Context, r SignalRequest) []models.Signal {
			return e.GetShortReversalSignals(ctx, r.Timeframe, r.Exchange, r.Limit)
		}
	case "GetStructureSignals":
		return func(ctx context.Context, r SignalRequest) []models.Signal {
			return e.GetStructureSignals(ctx, r.Exchange, r.Timeframe)
		}
	}
	return nil
}

func unaryHandler(method string) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		call := func(ctx context.Context, req interface{}) (interface{}, error) {
			var r SignalRequest
			if err := fromStruct(req.(*structpb.Struct), &r); err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
			}
			signals := srv.(*GRPCServer).scanFor(method)(ctx, r)
			return toStruct(map[string]interface{}{"signals": signals, "count": len(signals)})
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + SignalServiceName + "/" + method}
		return interceptor(ctx, in, info, call)
	}
}

// subscribe streams every snapshot matching the optional strategy and exchange filters
// until the client goes away.
func subscribeHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	var r SignalRequest
	if err := fromStruct(in, &r); err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}

	hub := srv.(*GRPCServer).engine.Hub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	logger := srv.(*GRPCServer).engine.log.With("stream", "subscribe", "strategy", r.Strategy, "exchange", r.Exchange)
	logger.Info("Subscriber connected")
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return nil
			}
			if (r.Strategy != "" && r.Strategy != snap.Strategy) || (r.Exchange != "" && r.Exchange != snap.Exchange) {
				continue
			}
			out, err := toStruct(snap)
			if err != nil {
				return status.Errorf(codes.Internal, "encode snapshot: %v", err)
			}
			if err := stream.SendMsg(out); err != nil {
				logger.Error(err, common.ErrCodeStreamClosed, common.ErrMsgStreamClosed, "Failed to send snapshot to stream")
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

var signalServiceDesc = grpc.ServiceDesc{
	ServiceName: SignalServiceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSignals", Handler: unaryHandler("GetSignals")},
		{MethodName: "GetCrossoverSignals", Handler: unaryHandler("GetCrossoverSignals")},
		{MethodName: "GetShortReversalSignals", Handler: unaryHandler("GetShortReversalSignals")},
		{MethodName: "GetStructureSignals", Handler: unaryHandler("GetStructureSignals")},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
}

// SignalClient calls a remote SignalService.
type SignalClient struct {
	cc grpc.ClientConnInterface
}

func NewSignalClient(cc grpc.ClientConnInterface) *SignalClient {
	return &SignalClient{cc: cc}
}

// Call invokes one of the unary Method* names.
func (c *SignalClient) Call(ctx context.Context, method string, req SignalRequest, opts ...grpc.CallOption) ([]models.Signal, error) {
	in, err := toStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	var resp struct {
		Signals []models.Signal `json:"signals"`
	}
	if err := fromStruct(out, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Signals == nil {
		resp.Signals = []models.Signal{}
	}
	return resp.Signals, nil
}

// SnapshotStream receives snapshots from Subscribe.
type SnapshotStream struct {
	stream grpc.ClientStream
}

func (s *SnapshotStream) Recv() (Snapshot, error) {
	out := new(structpb.Struct)
	if err := s.stream.RecvMsg(out); err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	err := fromStruct(out, &snap)
	return snap, err
}

func (c *SignalClient) Subscribe(ctx context.Context, req SignalRequest, opts ...grpc.CallOption) (*SnapshotStream, error) {
	stream, err := c.cc.NewStream(ctx, &signalServiceDesc.Streams[0], MethodSubscribe, opts...)
	if err != nil {
		return nil, err
	}
	in, err := toStruct(req)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &SnapshotStream{stream: stream}, nil
}

// toStruct converts v through its JSON form.
func toStruct(v interface{}) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func fromStruct(s *structpb.Struct, v interface{}) error {
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
