// Package grpc exposes the session flows as the marketauth.AuthService gRPC
// service.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/marketauth/internal/logging"
	"github.com/dmitrijs2005/marketauth/internal/server/auth"
	"github.com/dmitrijs2005/marketauth/internal/server/models"
	"github.com/dmitrijs2005/marketauth/internal/server/services"
	"google.golang.org/grpc"
)

// AuthService is the subset of services.UserService served over gRPC.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, userName, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.AccessGrant, error)
	Logout(ctx context.Context, refreshToken string) error
	WhoAmI(ctx context.Context, accessToken string) (*models.User, error)
}

// TokenVerifier checks access tokens in the interceptor.
type TokenVerifier interface {
	VerifyKind(token string, kind auth.TokenKind) (*auth.Claims, error)
}

type GRPCServer struct {
	address  string
	users    AuthService
	verifier TokenVerifier
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, us AuthService, v TokenVerifier) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		users:    us,
		verifier: v,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv.RegisterService(&AuthServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	return srv.Serve(lis)
}
