package api

import (
	"context"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CalendarClient calls the tradecal.v1.Calendar service.
type CalendarClient struct {
	cc grpc.ClientConnInterface
}

// NewCalendarClient wraps an existing connection.
func NewCalendarClient(cc grpc.ClientConnInterface) *CalendarClient {
	return &CalendarClient{cc: cc}
}

// Dial connects to a calendar server at addr without transport security.
// The caller closes the returned connection.
func Dial(addr string, opts ...grpc.DialOption) (*CalendarClient, *grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return NewCalendarClient(conn), conn, nil
}

func withExchange(ctx context.Context, name string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, ExchangeMetadataKey, name)
}

// Exchanges lists the exchanges served by the remote end.
func (c *CalendarClient) Exchanges(ctx context.Context) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, methodExchanges, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		names = append(names, v.GetStringValue())
	}
	return names, nil
}

// IsTradingTime reports whether t is a trading time on the named exchange.
func (c *CalendarClient) IsTradingTime(ctx context.Context, name string, t time.Time) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(withExchange(ctx, name), methodIsTradingTime, timestamppb.New(t), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// NextTradingTime returns the next trading time after t on the named
// exchange.
func (c *CalendarClient) NextTradingTime(ctx context.Context, name string, t time.Time) (time.Time, error) {
	out := new(timestamppb.Timestamp)
	if err := c.cc.Invoke(withExchange(ctx, name), methodNextTradingTime, timestamppb.New(t), out); err != nil {
		return time.Time{}, err
	}
	return out.AsTime(), nil
}

// TradingTimes collects the streamed instants of [start, end].
func (c *CalendarClient) TradingTimes(ctx context.Context, name string, start, end time.Time) ([]time.Time, error) {
	req, err := structpb.NewStruct(map[string]any{
		"start": start.Format(time.RFC3339Nano),
		"end":   end.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(withExchange(ctx, name))
	defer cancel()

	cs, err := c.cc.NewStream(ctx, &CalendarServiceDesc.Streams[0], methodTradingTimes)
	if err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	stream := &grpc.GenericClientStream[structpb.Struct, timestamppb.Timestamp]{ClientStream: cs}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	var out []time.Time
	for {
		ts, err := stream.Recv()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ts.AsTime())
	}
}
