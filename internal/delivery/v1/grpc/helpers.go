package grpc

import (
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GRPCErrorResponse переводит ошибку usecase в gRPC-статус. Детали внутренних ошибок скрываются.
func GRPCErrorResponse(err error) error {
	msg := e.Message(err)

	switch e.KindOf(err) {
	case e.KindInvalidRequest:
		return status.Error(codes.InvalidArgument, msg)
	case e.KindNotFound:
		return status.Error(codes.NotFound, msg)
	case e.KindForbidden:
		return status.Error(codes.PermissionDenied, msg)
	case e.KindInsufficientStock:
		return status.Error(codes.FailedPrecondition, msg)
	case e.KindInvalidState:
		return status.Error(codes.Aborted, msg)
	case e.KindUnauthenticated:
		return status.Error(codes.Unauthenticated, msg)
	default:
		return status.Error(codes.Internal, msg)
	}
}
