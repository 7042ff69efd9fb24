// Package client talks to the marketauth gRPC API and keeps the current
// session's tokens in memory.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/marketauth/internal/common"
	gs "github.com/dmitrijs2005/marketauth/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Profile is what WhoAmI reports about the logged-in user.
type Profile struct {
	ID           string
	UserName     string
	Email        string
	Role         string
	RegisteredOn string
}

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      *gs.AuthServiceClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = gs.NewAuthServiceClient(conn)
	return c, nil
}

func (c *GRPCClient) tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *GRPCClient) setTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// accessTokenInterceptor attaches the access token and, when the server
// reports it expired, refreshes it once and retries the call.
func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, refresh := c.tokens()
	if access != "" {
		ctx = gs.WithAccessToken(ctx, access)
	}

	err := invoker(ctx, method, req, reply, cc, opts...)
	if err == nil || method == gs.MethodRefreshToken || refresh == "" {
		return err
	}
	if !errors.Is(mapError(err), common.ErrTokenExpired) {
		return err
	}

	if rerr := c.refresh(ctx, refresh); rerr != nil {
		return err
	}

	access, _ = c.tokens()
	return invoker(gs.WithAccessToken(ctx, access), method, req, reply, cc, opts...)
}

func (c *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *GRPCClient) Register(ctx context.Context, userName, password, email, role string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if _, err := c.client.Register(ctx, userName, password, email, role); err != nil {
		return mapError(err)
	}
	return nil
}

// Login stores the returned token pair for later calls.
func (c *GRPCClient) Login(ctx context.Context, userName, password string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Login(ctx, userName, password)
	if err != nil {
		return mapError(err)
	}

	c.setTokens(field(resp, "access"), field(resp, "refresh"))
	return nil
}

// Refresh replaces the access token using the stored refresh token.
func (c *GRPCClient) Refresh(ctx context.Context) error {
	_, refresh := c.tokens()
	if refresh == "" {
		return ErrNotLoggedIn
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.refresh(ctx, refresh)
}

func (c *GRPCClient) refresh(ctx context.Context, refresh string) error {
	resp, err := c.client.RefreshToken(ctx, refresh)
	if err != nil {
		return mapError(err)
	}

	c.mu.Lock()
	c.accessToken = field(resp, "access_token")
	c.mu.Unlock()
	return nil
}

// Logout revokes the stored refresh token. Local tokens are dropped even
// when the server no longer knows the refresh token.
func (c *GRPCClient) Logout(ctx context.Context) error {
	_, refresh := c.tokens()
	if refresh == "" {
		return ErrNotLoggedIn
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.client.Logout(ctx, refresh)
	if err != nil {
		err = mapError(err)
		if !errors.Is(err, common.ErrUnknownRefreshToken) {
			return err
		}
	}

	c.setTokens("", "")
	return err
}

func (c *GRPCClient) WhoAmI(ctx context.Context) (*Profile, error) {
	if access, _ := c.tokens(); access == "" {
		return nil, ErrNotLoggedIn
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.WhoAmI(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return &Profile{
		ID:           field(resp, "id"),
		UserName:     field(resp, "username"),
		Email:        field(resp, "email"),
		Role:         field(resp, "role"),
		RegisteredOn: field(resp, "registered_on"),
	}, nil
}

func (c *GRPCClient) LoggedIn() bool {
	_, refresh := c.tokens()
	return refresh != ""
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func field(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}
