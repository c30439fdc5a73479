package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// identityKey gin 上下文中身份信息的键
const identityKey = "identity"

// KeycloakClaims Keycloak JWT 声明
type KeycloakClaims struct {
	Email             string   `json:"email"`
	PreferredUsername string   `json:"preferred_username"`
	Name              string   `json:"name"`
	Groups            []string `json:"groups"`
	TeamID            string   `json:"team_id"`
	SessionState      string   `json:"session_state"`
	jwt.RegisteredClaims
}

// Identity 已认证用户的身份
// Token 为原始 bearer token,用于调用上游服务
type Identity struct {
	Subject      string
	Email        string
	Username     string
	Name         string
	Groups       []string
	TeamID       string
	SessionState string
	Token        string
}

// SessionKey 会话缓存键,同一 subject 的新会话使用新键
func (i *Identity) SessionKey() string {
	return i.Subject + ":" + i.SessionState
}

// OwnerKey 资源归属键,没有 subject 时使用邮箱
func (i *Identity) OwnerKey() string {
	if i == nil {
		return ""
	}
	if i.Subject != "" {
		return i.Subject
	}
	return i.Email
}

// NewIdentity 根据声明构造身份
func NewIdentity(claims *KeycloakClaims, token string) *Identity {
	groups := claims.Groups
	if groups == nil {
		groups = []string{}
	}
	return &Identity{
		Subject:      claims.Subject,
		Email:        claims.Email,
		Username:     claims.PreferredUsername,
		Name:         claims.Name,
		Groups:       groups,
		TeamID:       claims.TeamID,
		SessionState: claims.SessionState,
		Token:        token,
	}
}

// TokenValidator token 验证接口
type TokenValidator interface {
	ValidateToken(tokenString string) (*KeycloakClaims, error)
}

// KeycloakTokenValidator Keycloak Token 验证器
type KeycloakTokenValidator struct {
	issuer     string
	jwksURL    string
	jwksCache  *sync.Map
	httpClient *http.Client
}

// NewKeycloakTokenValidator 创建 Keycloak Token 验证器
// jwksURL 为空时使用 issuer 的标准证书地址
func NewKeycloakTokenValidator(issuer string, jwksURL string) *KeycloakTokenValidator {
	if jwksURL == "" {
		jwksURL = fmt.Sprintf("%s/protocol/openid-connect/certs", strings.TrimRight(issuer, "/"))
	}
	return &KeycloakTokenValidator{
		issuer:     issuer,
		jwksURL:    jwksURL,
		jwksCache:  &sync.Map{},
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Issuer 返回 Issuer URL
func (v *KeycloakTokenValidator) Issuer() string {
	return v.issuer
}

// ValidateToken 验证 Keycloak JWT Token
func (v *KeycloakTokenValidator) ValidateToken(tokenString string) (*KeycloakClaims, error) {
	claims := &KeycloakClaims{}

	// 1. 根据 kid 获取公钥并验证签名
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("missing kid in token header")
		}
		return v.GetPublicKey(kid)
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}

	// 2. 验证 claims
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Email == "" {
		return nil, errors.New("token has no email claim")
	}

	return claims, nil
}

// GetPublicKey 获取公钥 (从 JWKS 或缓存)
func (v *KeycloakTokenValidator) GetPublicKey(kid string) (*rsa.PublicKey, error) {
	// 从缓存获取
	if cached, ok := v.jwksCache.Load(kid); ok {
		return cached.(*rsa.PublicKey), nil
	}

	// 从 Keycloak 获取 JWKS
	resp, err := v.httpClient.Get(v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			Use string `json:"use"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	// 缓存所有 RSA key,返回匹配的 key
	var found *rsa.PublicKey
	for _, key := range jwks.Keys {
		if key.Kty != "RSA" {
			continue
		}
		publicKey, err := parseRSAPublicKey(key.N, key.E)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
		}
		v.jwksCache.Store(key.Kid, publicKey)
		if key.Kid == kid {
			found = publicKey
		}
	}

	if found == nil {
		return nil, fmt.Errorf("key not found in JWKS: %s", kid)
	}
	return found, nil
}

// parseRSAPublicKey 解析 RSA 公钥
func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode n: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode e: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := int(new(big.Int).SetBytes(eBytes).Int64())

	return &rsa.PublicKey{
		N: n,
		E: e,
	}, nil
}

// BearerToken 从 Authorization 头中提取 token
func BearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return header[7:]
	}
	return header
}

// KeycloakAuthMiddleware Keycloak JWT 认证中间件
func KeycloakAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "missing authorization header",
			})
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "invalid token",
				"detail":  err.Error(),
			})
			c.Abort()
			return
		}

		// 将用户信息存储到上下文
		identity := NewIdentity(claims, token)
		c.Set(identityKey, identity)
		c.Set("user_id", identity.Email)
		c.Set("email", identity.Email)
		c.Set("groups", identity.Groups)

		c.Next()
	}
}

// SetIdentity 将身份写入上下文
func SetIdentity(c *gin.Context, identity *Identity) {
	c.Set(identityKey, identity)
	c.Set("user_id", identity.Email)
}

// GetIdentity 从上下文读取身份,未认证时返回 nil
func GetIdentity(c *gin.Context) *Identity {
	val, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := val.(*Identity)
	return identity
}
