package mcp

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zx06/xcred/internal/errors"
)

const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable_http"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
	// 凭据服务的 realm，出现在 WWW-Authenticate 中。
	authChallenge = `Bearer realm="xcred"`

	msgTokenMissing = "credential server requires a bearer token"
	msgBadScheme    = "credential server accepts only bearer tokens"
	msgBadToken     = "bearer token rejected by credential server"
)

// NewStreamableHTTPHandler serves the credential tools over streamable HTTP.
// Every request must carry authToken as a bearer token.
func NewStreamableHTTPHandler(server *mcp.Server, authToken string) (http.Handler, error) {
	if server == nil {
		return nil, errors.New(errors.CodeInternal, "mcp server is nil", nil)
	}
	if authToken == "" {
		return nil, errors.New(errors.CodeCfgInvalid, "credential server auth token is required", map[string]any{"env": "XCRED_MCP_HTTP_AUTH_TOKEN"})
	}
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
	return requireBearer(handler, authToken), nil
}

func requireBearer(next http.Handler, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		auth := strings.TrimSpace(req.Header.Get(authHeader))
		switch {
		case auth == "":
			reject(w, msgTokenMissing)
		case !strings.HasPrefix(auth, bearerPrefix):
			reject(w, msgBadScheme)
		case subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(auth, bearerPrefix)), []byte(token)) != 1:
			reject(w, msgBadToken)
		default:
			next.ServeHTTP(w, req)
		}
	})
}

func reject(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", authChallenge)
	http.Error(w, msg, http.StatusUnauthorized)
}
