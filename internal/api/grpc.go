package api

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"tradecal/internal/calendar"
	"tradecal/internal/exchange"
)

// ExchangeMetadataKey selects the exchange of a gRPC call.
const ExchangeMetadataKey = "x-exchange"

const (
	serviceName = "tradecal.v1.Calendar"

	methodExchanges       = "/" + serviceName + "/Exchanges"
	methodIsTradingTime   = "/" + serviceName + "/IsTradingTime"
	methodNextTradingTime = "/" + serviceName + "/NextTradingTime"
	methodTradingTimes    = "/" + serviceName + "/TradingTimes"
)

// CalendarServiceServer is the server API for the tradecal.v1.Calendar
// service. Messages are protobuf well-known types so no generated code is
// needed.
type CalendarServiceServer interface {
	Exchanges(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	IsTradingTime(context.Context, *timestamppb.Timestamp) (*wrapperspb.BoolValue, error)
	NextTradingTime(context.Context, *timestamppb.Timestamp) (*timestamppb.Timestamp, error)
	// TradingTimes expects a Struct with RFC 3339 "start" and "end" strings.
	TradingTimes(*structpb.Struct, grpc.ServerStreamingServer[timestamppb.Timestamp]) error
}

// CalendarServiceDesc describes the tradecal.v1.Calendar service.
var CalendarServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CalendarServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Exchanges", Handler: exchangesHandler},
		{MethodName: "IsTradingTime", Handler: isTradingTimeHandler},
		{MethodName: "NextTradingTime", Handler: nextTradingTimeHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "TradingTimes", Handler: tradingTimesHandler, ServerStreams: true},
	},
	Metadata: "tradecal/v1/calendar.proto",
}

// RegisterCalendarServiceServer registers srv on s.
func RegisterCalendarServiceServer(s grpc.ServiceRegistrar, srv CalendarServiceServer) {
	s.RegisterService(&CalendarServiceDesc, srv)
}

func exchangesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		return srv.(CalendarServiceServer).Exchanges(ctx, req.(*emptypb.Empty))
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: methodExchanges}, call)
}

func isTradingTimeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(timestamppb.Timestamp)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		return srv.(CalendarServiceServer).IsTradingTime(ctx, req.(*timestamppb.Timestamp))
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: methodIsTradingTime}, call)
}

func nextTradingTimeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(timestamppb.Timestamp)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		return srv.(CalendarServiceServer).NextTradingTime(ctx, req.(*timestamppb.Timestamp))
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: methodNextTradingTime}, call)
}

func tradingTimesHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CalendarServiceServer).TradingTimes(in,
		&grpc.GenericServerStream[structpb.Struct, timestamppb.Timestamp]{ServerStream: stream})
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

// CalendarService implements CalendarServiceServer over a Registry.
type CalendarService struct {
	reg *calendar.Registry
}

var _ CalendarServiceServer = (*CalendarService)(nil)

// NewCalendarService creates a CalendarService backed by reg.
func NewCalendarService(reg *calendar.Registry) *CalendarService {
	return &CalendarService{reg: reg}
}

// RegisterGRPC registers the service on the given gRPC server instance.
func (s *CalendarService) RegisterGRPC(gs *grpc.Server) {
	RegisterCalendarServiceServer(gs, s)
}

func (s *CalendarService) querier(ctx context.Context) (calendar.Querier, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	names := md.Get(ExchangeMetadataKey)
	if len(names) == 0 || names[0] == "" {
		return nil, status.Errorf(codes.InvalidArgument, "missing %s metadata", ExchangeMetadataKey)
	}
	q, err := s.reg.Get(names[0])
	if err != nil {
		return nil, statusFor(err)
	}
	return q, nil
}

// statusFor maps calendar errors onto gRPC status codes.
func statusFor(err error) error {
	switch {
	case errors.Is(err, calendar.ErrUnknownExchange):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, calendar.ErrInvalidRange):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, calendar.ErrNoTradingTime):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// Exchanges lists the served exchange names.
func (s *CalendarService) Exchanges(_ context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	names := s.reg.Names()
	values := make([]any, len(names))
	for i, n := range names {
		values[i] = n
	}
	return structpb.NewList(values)
}

// IsTradingTime reports whether the instant falls in a session.
func (s *CalendarService) IsTradingTime(ctx context.Context, in *timestamppb.Timestamp) (*wrapperspb.BoolValue, error) {
	q, err := s.querier(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.CheckValid(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return wrapperspb.Bool(q.IsTradingTime(in.AsTime())), nil
}

// NextTradingTime returns the next session instant after the given one.
func (s *CalendarService) NextTradingTime(ctx context.Context, in *timestamppb.Timestamp) (*timestamppb.Timestamp, error) {
	q, err := s.querier(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.CheckValid(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	next, err := q.NextTradingTime(in.AsTime())
	if err != nil {
		return nil, statusFor(err)
	}
	return timestamppb.New(next), nil
}

// TradingTimes streams the sampled instants of a range.
func (s *CalendarService) TradingTimes(in *structpb.Struct, stream grpc.ServerStreamingServer[timestamppb.Timestamp]) error {
	ctx := stream.Context()
	q, err := s.querier(ctx)
	if err != nil {
		return err
	}
	loc := q.Schedule().Location()

	start, err := structInstant(in, "start", loc, false)
	if err != nil {
		return err
	}
	end, err := structInstant(in, "end", loc, true)
	if err != nil {
		return err
	}

	seq, err := q.TradingTimes(start, end)
	if err != nil {
		return statusFor(err)
	}
	for ts := range seq {
		if err := ctx.Err(); err != nil {
			return statusFor(err)
		}
		if err := stream.Send(timestamppb.New(ts)); err != nil {
			return err
		}
	}
	return nil
}

func structInstant(in *structpb.Struct, key string, loc *time.Location, rangeEnd bool) (time.Time, error) {
	v, ok := in.GetFields()[key]
	if !ok || v.GetStringValue() == "" {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "missing %s", key)
	}
	var (
		t   time.Time
		err error
	)
	if rangeEnd {
		t, err = exchange.ParseRangeEnd(v.GetStringValue(), loc)
	} else {
		t, _, err = exchange.ParseInstant(v.GetStringValue(), loc)
	}
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s: %v", key, err)
	}
	return t, nil
}
