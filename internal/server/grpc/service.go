package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "marketauth.AuthService"

const (
	MethodRegister     = "/" + ServiceName + "/Register"
	MethodLogin        = "/" + ServiceName + "/Login"
	MethodRefreshToken = "/" + ServiceName + "/RefreshToken"
	MethodLogout       = "/" + ServiceName + "/Logout"
	MethodWhoAmI       = "/" + ServiceName + "/WhoAmI"
)

// AuthServiceServer is implemented by GRPCServer. Requests and responses are
// google.protobuf.Struct so no generated code is needed.
type AuthServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WhoAmI(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(AuthServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthServiceDesc describes the service for grpc.Server.RegisterService.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(MethodRegister, AuthServiceServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(MethodLogin, AuthServiceServer.Login)},
		{MethodName: "RefreshToken", Handler: unaryHandler(MethodRefreshToken, AuthServiceServer.RefreshToken)},
		{MethodName: "Logout", Handler: unaryHandler(MethodLogout, AuthServiceServer.Logout)},
		{MethodName: "WhoAmI", Handler: unaryHandler(MethodWhoAmI, AuthServiceServer.WhoAmI)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/marketauth/auth.proto",
}

// AuthServiceClient calls AuthService over an existing connection.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func (c *AuthServiceClient) invoke(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthServiceClient) Register(ctx context.Context, userName, password, email, role string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRegister, map[string]any{
		"username": userName,
		"password": password,
		"email":    email,
		"role":     role,
	}, opts...)
}

func (c *AuthServiceClient) Login(ctx context.Context, userName, password string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodLogin, map[string]any{"username": userName, "password": password}, opts...)
}

func (c *AuthServiceClient) RefreshToken(ctx context.Context, refreshToken string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRefreshToken, map[string]any{"refresh_token": refreshToken}, opts...)
}

func (c *AuthServiceClient) Logout(ctx context.Context, refreshToken string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodLogout, map[string]any{"refresh_token": refreshToken}, opts...)
}

// WhoAmI expects the access token in outgoing metadata, see WithAccessToken.
func (c *AuthServiceClient) WhoAmI(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodWhoAmI, map[string]any{}, opts...)
}
