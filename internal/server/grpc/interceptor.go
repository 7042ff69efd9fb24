package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/marketauth/internal/common"
	"github.com/dmitrijs2005/marketauth/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const accessTokenKey ctxKey = "accessToken"

// protected lists the methods that require an access token.
var protected = map[string]bool{
	MethodWhoAmI: true,
}

// WithAccessToken attaches token to outgoing metadata for protected calls.
func WithAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !protected[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	if _, err := s.verifier.VerifyKind(accessToken, auth.KindAccess); err != nil {
		return nil, toStatus(err)
	}

	ctx = context.WithValue(ctx, accessTokenKey, accessToken)

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	switch code {
	case codes.OK:
		s.logger.Info(ctx, "rpc", args...)
	case codes.Internal, codes.Unavailable, codes.Unknown:
		s.logger.Error(ctx, "rpc", append(args, "error", err.Error())...)
	default:
		s.logger.Warn(ctx, "rpc", args...)
	}
	return resp, err
}

func accessTokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(accessTokenKey).(string)
	return v
}
