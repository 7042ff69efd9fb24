package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/marketauth/internal/common"
	"github.com/dmitrijs2005/marketauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.logger.Info(ctx, "Registration request")

	user, err := s.users.Register(ctx, services.RegisterInput{
		UserName: stringField(req, "username"),
		Password: stringField(req, "password"),
		Email:    stringField(req, "email"),
		Role:     stringField(req, "role"),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "username", user.UserName)
	return respond(map[string]any{"detail": "Successfully registered in.", "id": user.ID})
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	pair, err := s.users.Login(ctx, stringField(req, "username"), stringField(req, "password"))
	if err != nil {
		return nil, toStatus(err)
	}

	return respond(map[string]any{
		"access":     pair.AccessToken,
		"refresh":    pair.RefreshToken,
		"token_type": pair.TokenType,
	})
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	grant, err := s.users.RefreshToken(ctx, stringField(req, "refresh_token"))
	if err != nil {
		return nil, toStatus(err)
	}

	return respond(map[string]any{"access_token": grant.AccessToken, "token_type": grant.TokenType})
}

func (s *GRPCServer) Logout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.users.Logout(ctx, stringField(req, "refresh_token")); err != nil {
		return nil, toStatus(err)
	}

	return respond(map[string]any{"detail": "Successfully logged out."})
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	user, err := s.users.WhoAmI(ctx, accessTokenFromContext(ctx))
	if err != nil {
		return nil, toStatus(err)
	}

	return respond(map[string]any{
		"id":            user.ID,
		"username":      user.UserName,
		"email":         user.Email,
		"role":          string(user.Role),
		"registered_on": user.RegisteredOn.Format(time.DateOnly),
	})
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func respond(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// toStatus maps a flow error to a gRPC status. Token failures carry the
// sentinel text so clients can tell an expired token from a bad one.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrDuplicateUsername):
		return status.Error(codes.AlreadyExists, common.ErrDuplicateUsername.Error())
	case errors.Is(err, common.ErrDuplicateEmail):
		return status.Error(codes.AlreadyExists, common.ErrDuplicateEmail.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrUnknownRefreshToken):
		return status.Error(codes.Unauthenticated, common.ErrUnknownRefreshToken.Error())
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrInvalidSignature):
		return status.Error(codes.Unauthenticated, common.ErrInvalidSignature.Error())
	case errors.Is(err, common.ErrStorageUnavailable):
		return status.Error(codes.Unavailable, common.ErrStorageUnavailable.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
