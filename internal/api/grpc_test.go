package api

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"tradecal/internal/calendar"
	"tradecal/internal/exchange"
)

func testRegistry(t *testing.T) *calendar.Registry {
	t.Helper()
	reg := calendar.NewRegistry([]calendar.Option{calendar.WithFrequency(time.Hour)})
	s, err := exchange.Config{
		Name:        "ADX",
		Timezone:    "Asia/Dubai",
		OpenTime:    "10:00",
		CloseTime:   "14:00",
		TradingDays: []int{0, 1, 2, 3, 4},
		Holidays:    []string{"2024-01-01"},
		SpecialTradingDays: []exchange.SpecialDayConfig{
			{Date: "2024-07-01", OpenTime: "10:30", CloseTime: "13:30"},
		},
	}.Build()
	require.NoError(t, err)
	require.NoError(t, reg.Add(s))
	return reg
}

func bufconnClient(t *testing.T, reg *calendar.Registry) *CalendarClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	NewCalendarService(reg).RegisterGRPC(gs)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewCalendarClient(conn)
}

func TestGRPCExchanges(t *testing.T) {
	c := bufconnClient(t, testRegistry(t))
	names, err := c.Exchanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ADX"}, names)
}

func TestGRPCIsTradingTime(t *testing.T) {
	c := bufconnClient(t, testRegistry(t))
	ctx := context.Background()
	dubai, _ := time.LoadLocation("Asia/Dubai")

	ok, err := c.IsTradingTime(ctx, "ADX", time.Date(2024, 1, 2, 11, 0, 0, 0, dubai))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsTradingTime(ctx, "ADX", time.Date(2024, 7, 1, 10, 15, 0, 0, dubai))
	require.NoError(t, err)
	assert.False(t, ok, "special day opens at 10:30")
}

func TestGRPCNextTradingTime(t *testing.T) {
	c := bufconnClient(t, testRegistry(t))
	dubai, _ := time.LoadLocation("Asia/Dubai")

	next, err := c.NextTradingTime(context.Background(), "ADX", time.Date(2023, 12, 29, 15, 0, 0, 0, dubai))
	require.NoError(t, err)
	// 30 Dec and 31 Dec are the weekend, 1 Jan is a holiday.
	assert.True(t, next.Equal(time.Date(2024, 1, 2, 10, 0, 0, 0, dubai)), "next = %s", next)
}

func TestGRPCTradingTimes(t *testing.T) {
	c := bufconnClient(t, testRegistry(t))
	dubai, _ := time.LoadLocation("Asia/Dubai")

	times, err := c.TradingTimes(context.Background(), "ADX",
		time.Date(2024, 7, 1, 0, 0, 0, 0, dubai),
		time.Date(2024, 7, 1, 23, 59, 0, 0, dubai))
	require.NoError(t, err)
	require.Len(t, times, 3)
	assert.True(t, times[0].Equal(time.Date(2024, 7, 1, 10, 30, 0, 0, dubai)))
	assert.True(t, times[2].Equal(time.Date(2024, 7, 1, 12, 30, 0, 0, dubai)))
}

func TestGRPCErrors(t *testing.T) {
	c := bufconnClient(t, testRegistry(t))
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC)

	_, err := c.IsTradingTime(ctx, "LSE", now)
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.IsTradingTime(ctx, "", now)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.TradingTimes(ctx, "ADX", now, now.Add(-time.Hour))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, codes.FailedPrecondition, status.Code(statusFor(calendar.ErrNoTradingTime)))
	assert.Equal(t, codes.InvalidArgument, status.Code(statusFor(calendar.ErrInvalidRange)))
	assert.Equal(t, codes.NotFound, status.Code(statusFor(calendar.ErrUnknownExchange)))
	assert.Equal(t, codes.Canceled, status.Code(statusFor(context.Canceled)))
}
