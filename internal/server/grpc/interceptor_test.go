package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/marketauth/internal/common"
	"github.com/dmitrijs2005/marketauth/internal/logging"
	"github.com/dmitrijs2005/marketauth/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestSigner(t *testing.T) *auth.Signer {
	t.Helper()
	s, err := auth.NewSigner("secret", "HS256", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

// helper to build server
func newTestServer(t *testing.T) *GRPCServer {
	return NewGRPCServer("", logging.Nop{}, &fakeAuth{}, newTestSigner(t))
}

func incoming(token string) context.Context {
	md := metadata.New(map[string]string{common.AccessTokenHeaderName: token})
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestInterceptor_Unprotected_AllowsWithoutToken(t *testing.T) {
	s := newTestServer(t)

	info := &grpc.UnaryServerInfo{FullMethod: MethodLogin}
	handlerCalled := false

	h := func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_WhoAmI_MissingToken(t *testing.T) {
	s := newTestServer(t)

	info := &grpc.UnaryServerInfo{FullMethod: MethodWhoAmI}

	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
	if status.Convert(err).Message() != "missing token" {
		t.Fatalf("expected 'missing token', got %q", status.Convert(err).Message())
	}
}

func TestInterceptor_WhoAmI_RejectsBadTokens(t *testing.T) {
	s := newTestServer(t)
	signer := newTestSigner(t)

	refresh, err := signer.IssueRefresh("alice")
	if err != nil {
		t.Fatal(err)
	}
	expired, err := signer.Issue("alice", auth.KindAccess, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{"garbage", "not-a-valid-jwt", common.ErrInvalidSignature.Error()},
		{"refresh token used as access", refresh, common.ErrInvalidSignature.Error()},
		{"expired", expired, common.ErrTokenExpired.Error()},
	}

	info := &grpc.UnaryServerInfo{FullMethod: MethodWhoAmI}
	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called")
		return nil, nil
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.accessTokenInterceptor(incoming(tt.token), nil, info, h)
			if status.Code(err) != codes.Unauthenticated {
				t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
			}
			if got := status.Convert(err).Message(); got != tt.wantMsg {
				t.Fatalf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestInterceptor_WhoAmI_ValidTokenReachesHandler(t *testing.T) {
	s := newTestServer(t)

	access, err := newTestSigner(t).IssueAccess("alice")
	if err != nil {
		t.Fatal(err)
	}

	info := &grpc.UnaryServerInfo{FullMethod: MethodWhoAmI}
	var seen string
	h := func(ctx context.Context, req any) (any, error) {
		seen = accessTokenFromContext(ctx)
		return "ok", nil
	}

	if _, err := s.accessTokenInterceptor(incoming(access), nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != access {
		t.Fatal("access token was not put into the handler context")
	}
}

func TestWithAccessToken_ReplacesExisting(t *testing.T) {
	ctx := WithAccessToken(context.Background(), "first")
	ctx = WithAccessToken(ctx, "second")

	md, _ := metadata.FromOutgoingContext(ctx)
	got := md.Get(common.AccessTokenHeaderName)
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("metadata = %v", got)
	}
}
