package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/cfg"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type stubProductUC struct {
	usecase.ProductUC
	gotIDs []int64
}

func (s *stubProductUC) GetProductsInfo(_ context.Context, req *usecase.GetProductsReq) (*usecase.GetProductsRes, error) {
	s.gotIDs = req.IDs
	return usecase.NewGetProductsRes(
		[]usecase.ProductInfo{{ID: 7, Name: "Coffee", CategoryName: "Drinks", Price: decimal.RequireFromString("45"), Stock: 3}},
		[]int64{9},
	), nil
}

type flakyDB struct{ down atomic.Bool }

func (f *flakyDB) Ping(context.Context) error {
	if f.down.Load() {
		return errors.New("db down")
	}
	return nil
}

func startServer(t *testing.T, db Pinger, uc usecase.ProductUC) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(&cfg.GRPCConfig{HealthInterval: 10 * time.Millisecond}, logger.NewNop())
	srv.RegisterServices(uc)

	ctx, cancel := context.WithCancel(context.Background())
	srv.WatchDB(ctx, db)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
		defer stop()
		_ = srv.Stop(stopCtx)
	})

	return conn
}

func TestHealthFollowsDatabase(t *testing.T) {
	db := &flakyDB{}
	conn := startServer(t, db, &stubProductUC{})
	client := healthpb.NewHealthClient(conn)

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return resp.GetStatus()
	}

	require.Eventually(t, func() bool { return check() == healthpb.HealthCheckResponse_SERVING }, 2*time.Second, 10*time.Millisecond)

	db.down.Store(true)
	require.Eventually(t, func() bool { return check() == healthpb.HealthCheckResponse_NOT_SERVING }, 2*time.Second, 10*time.Millisecond)
}

func TestCatalogService_GetProductsInfo(t *testing.T) {
	uc := &stubProductUC{}
	conn := startServer(t, &flakyDB{}, uc)

	req, err := structpb.NewStruct(map[string]interface{}{"ids": []interface{}{7, 9}})
	require.NoError(t, err)

	resp := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), GetProductsInfoFullRPC, req, resp))

	assert.Equal(t, []int64{7, 9}, uc.gotIDs)
	m := resp.AsMap()
	products := m["products"].([]interface{})
	require.Len(t, products, 1)
	assert.Equal(t, "45.00", products[0].(map[string]interface{})["price"])
	assert.Equal(t, []interface{}{float64(9)}, m["not_found"])
}

func TestCatalogService_InvalidIDs(t *testing.T) {
	conn := startServer(t, &flakyDB{}, &stubProductUC{})

	req, err := structpb.NewStruct(map[string]interface{}{"ids": []interface{}{1.5}})
	require.NoError(t, err)

	err = conn.Invoke(context.Background(), GetProductsInfoFullRPC, req, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCErrorResponse(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{e.Wrap("op", e.ErrNoItems), codes.InvalidArgument},
		{e.Wrap("op", e.ErrProductNotFound), codes.NotFound},
		{e.Wrap("op", e.ErrStaffOnly), codes.PermissionDenied},
		{&e.StockError{ProductID: 1}, codes.FailedPrecondition},
		{e.ErrIllegalTransition, codes.Aborted},
		{errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, status.Code(GRPCErrorResponse(tt.err)), tt.err.Error())
	}

	st, _ := status.FromError(GRPCErrorResponse(errors.New("secret dsn")))
	assert.Equal(t, "internal server error", st.Message())
}
