// Package authtest 提供用于测试的 Keycloak 签发者
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// KeyID 测试签名密钥 ID
const KeyID = "test-key"

// Issuer 带 JWKS 端点的测试签发者
type Issuer struct {
	URL    string
	key    *rsa.PrivateKey
	server *httptest.Server
	t      *testing.T
}

// NewIssuer 创建测试签发者,测试结束时自动关闭
func NewIssuer(t *testing.T) *Issuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	issuer := &Issuer{key: key, t: t}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protocol/openid-connect/certs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"keys": []gin.H{{
			"kid": KeyID,
			"kty": "RSA",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	})
	issuer.server = httptest.NewServer(router)
	issuer.URL = issuer.server.URL
	t.Cleanup(issuer.server.Close)
	return issuer
}

// Validator 返回信任该签发者的验证器
func (i *Issuer) Validator() *auth.KeycloakTokenValidator {
	return auth.NewKeycloakTokenValidator(i.URL, "")
}

// Token 签发 token
func (i *Issuer) Token(email string, groups []string, teamID string) string {
	return i.Sign(&auth.KeycloakClaims{
		Email:        email,
		Groups:       groups,
		TeamID:       teamID,
		SessionState: "session-" + email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-" + email,
			Issuer:    i.URL,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
}

// Sign 使用测试密钥签名任意声明
func (i *Issuer) Sign(claims *auth.KeycloakClaims) string {
	i.t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = KeyID
	signed, err := token.SignedString(i.key)
	require.NoError(i.t, err)
	return signed
}
