package grpcsvc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// toStatus переводит ошибку сервисного слоя в gRPC-статус по её корневой категории.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, domain.ErrAlreadyValidated), errors.Is(err, domain.ErrAlreadyCancelled):
		return status.Error(codes.AlreadyExists, err.Error())
	}

	switch domain.Kind(err) {
	case domain.ErrNotFound:
		return status.Error(codes.NotFound, err.Error())
	case domain.ErrInvalidArgument:
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.ErrInsufficientStock, domain.ErrIllegalStateTransition:
		return status.Error(codes.FailedPrecondition, err.Error())
	case domain.ErrPersistence:
		return status.Error(codes.Internal, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
