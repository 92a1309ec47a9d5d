package mocks

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type mockOidcServer struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	httpServer *httptest.Server
}

const kidHeader = "1"

// NewMockOidcServer starts an OIDC issuer that serves its signing key as a JWKS document.
// You must call Stop afterward.
func NewMockOidcServer() (*mockOidcServer, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	mockServer := &mockOidcServer{
		privateKey: privateKey,
		publicKey:  privateKey.Public().(*rsa.PublicKey),
	}

	mockHandler := http.NewServeMux()
	mockHandler.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":   mockServer.IssuerURL(),
			"jwks_uri": mockServer.JWKSURL(),
		})
	})
	mockHandler.HandleFunc("/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{
				{
					"kid": kidHeader,
					"kty": "RSA",
					"alg": "RS256",
					"use": "sig",
					"n":   base64.RawURLEncoding.EncodeToString(mockServer.publicKey.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(mockServer.publicKey.E)).Bytes()),
				},
			},
		})
	})

	mockServer.httpServer = httptest.NewServer(mockHandler)
	return mockServer, nil
}

func (server *mockOidcServer) IssuerURL() string {
	return server.httpServer.URL
}

func (server *mockOidcServer) JWKSURL() string {
	return server.httpServer.URL + "/jwks.json"
}

func (server *mockOidcServer) Stop() {
	server.httpServer.Close()
}

// GetToken returns an RS256 token for subject carrying scope, valid for ttl.
func (server *mockOidcServer) GetToken(subject, scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   server.IssuerURL(),
		"sub":   subject,
		"scope": scope,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	token.Header["kid"] = kidHeader
	return token.SignedString(server.privateKey)
}
