package grpc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthServiceDesc_MatchesProtoContract(t *testing.T) {
	b, err := os.ReadFile(filepath.Join("..", "..", "..", AuthServiceDesc.Metadata.(string)))
	require.NoError(t, err)
	proto := string(b)

	assert.Contains(t, proto, "package marketauth;")
	assert.Contains(t, proto, "service AuthService {")
	assert.Equal(t, ServiceName, "marketauth.AuthService")

	want := map[string]string{
		"Register":     MethodRegister,
		"Login":        MethodLogin,
		"RefreshToken": MethodRefreshToken,
		"Logout":       MethodLogout,
		"WhoAmI":       MethodWhoAmI,
	}
	require.Len(t, AuthServiceDesc.Methods, len(want))
	for _, m := range AuthServiceDesc.Methods {
		full, ok := want[m.MethodName]
		require.True(t, ok, m.MethodName)
		assert.Equal(t, "/"+ServiceName+"/"+m.MethodName, full)
		assert.Contains(t, proto, "rpc "+m.MethodName+"(google.protobuf.Struct) returns (google.protobuf.Struct);")
	}
	assert.Equal(t, len(want), strings.Count(proto, "  rpc "))
}
