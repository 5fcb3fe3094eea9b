package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/streamsplit/internal/storage"
	"github.com/mmynk/streamsplit/internal/tracker"
)

// toConnectError maps tracker and store errors to Connect codes.
func toConnectError(err error) error {
	var (
		validationErr  *tracker.ValidationError
		cascadeErr     *tracker.CascadeError
		persistenceErr *tracker.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.As(err, &cascadeErr):
		return connect.NewError(connect.CodeAborted,
			fmt.Errorf("member %s removed; services not updated: %s", cascadeErr.MemberID, strings.Join(cascadeErr.ServiceIDs(), ", ")))
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.As(err, &persistenceErr):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
