package http

import (
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"golang.org/x/net/websocket"
)

const (
	// HeaderAppKey is the header that carries the key identifying the
	// application a client connects on behalf of.
	HeaderAppKey = "X-App-Key"

	// HeaderClientID is the header that carries a client chosen identifier
	// used to correlate logs.
	HeaderClientID = "X-Client-Id"
)

// GetAppKeyFromRequest returns the app key carried by the given request.
func GetAppKeyFromRequest(r *http.Request) string {
	return r.Header.Get(HeaderAppKey)
}

// GetClientIDFromRequest returns the client id carried by the given request.
func GetClientIDFromRequest(r *http.Request) string {
	return r.Header.Get(HeaderClientID)
}

// VerifyAppKey returns a websocket handshake check that rejects connections
// whose app key is not in the given set. An empty set accepts any key.
func VerifyAppKey(appKeys []string) func(*websocket.Config, *http.Request) error {
	allowed := make(map[string]struct{}, len(appKeys))
	for _, k := range appKeys {
		allowed[k] = struct{}{}
	}

	return func(c *websocket.Config, r *http.Request) error {
		if len(allowed) == 0 {
			return nil
		}

		if _, ok := allowed[GetAppKeyFromRequest(r)]; !ok {
			err := errors.New("app key rejected").
				WithTag("client_id", GetClientIDFromRequest(r))
			logs.WithTag("client_id", GetClientIDFromRequest(r)).Error(err)
			return err
		}

		return nil
	}
}

// VerifyAppKeyHandler wraps the given handler, rejecting requests whose app
// key is not in the given set. An empty set accepts any key.
func VerifyAppKeyHandler(appKeys []string, next http.HandlerFunc) func(http.ResponseWriter, *http.Request) {
	allowed := make(map[string]struct{}, len(appKeys))
	for _, k := range appKeys {
		allowed[k] = struct{}{}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if len(allowed) != 0 {
			if _, ok := allowed[GetAppKeyFromRequest(r)]; !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	}
}
