package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/marketauth/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrNotLoggedIn = errors.New("not logged in")
)

// knownErrors are the sentinels the server puts into status messages.
var knownErrors = []error{
	common.ErrDuplicateUsername,
	common.ErrDuplicateEmail,
	common.ErrInvalidCredentials,
	common.ErrUnknownRefreshToken,
	common.ErrTokenExpired,
	common.ErrInvalidSignature,
	common.ErrStorageUnavailable,
}

// mapError turns a gRPC status back into the matching common sentinel so
// callers can use errors.Is.
func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		if st.Message() == common.ErrStorageUnavailable.Error() {
			return common.ErrStorageUnavailable
		}
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrValidation, st.Message())
	}

	for _, e := range knownErrors {
		if st.Message() == e.Error() {
			return e
		}
	}
	return fmt.Errorf("%s: %s", st.Code(), st.Message())
}
