package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/user/cowatch/internal/model"
	"github.com/user/cowatch/internal/utils"
)

const identityKey = "identity"

// RefreshTokenHeader 令牌有效期过半时返回新令牌
const RefreshTokenHeader = "X-Refresh-Token"

// Authenticator 将 Bearer Token 解析为调用方身份
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Identity, error)
}

// Claims JWT 声明，sub 为身份提供方的用户标识
type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuthenticator HS256 令牌校验
type JWTAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret)}
}

func (a *JWTAuthenticator) Authenticate(_ context.Context, tokenString string) (*model.Identity, error) {
	claims, err := a.parse(tokenString)
	if err != nil {
		return nil, err
	}
	return &model.Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

func (a *JWTAuthenticator) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// refresh 已消耗超过一半有效期时签发新令牌
func (a *JWTAuthenticator) refresh(tokenString string) (string, bool) {
	claims, err := a.parse(tokenString)
	if err != nil || !shouldRefresh(claims) {
		return "", false
	}
	expiry := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	identity := &model.Identity{Subject: claims.Subject, Email: claims.Email, Name: claims.Name, Picture: claims.Picture}
	token, err := GenerateToken(identity, string(a.secret), expiry)
	if err != nil {
		return "", false
	}
	return token, true
}

// OIDCAuthenticator 校验身份提供方签发的 ID Token
type OIDCAuthenticator struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCAuthenticator(ctx context.Context, issuer, clientID string) (*OIDCAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("初始化 OIDC Provider 失败: %w", err)
	}
	return &OIDCAuthenticator{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (a *OIDCAuthenticator) Authenticate(ctx context.Context, tokenString string) (*model.Identity, error) {
	idToken, err := a.verifier.Verify(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	return &model.Identity{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

// RequireAuth 必须登录中间件
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			utils.Unauthorized(c, "")
			return
		}

		identity, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil || identity.Subject == "" {
			if err == nil {
				err = errors.New("缺少 sub")
			}
			utils.Logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("[Auth] 令牌校验失败")
			utils.Unauthorized(c, "登录已失效")
			return
		}
		c.Set(identityKey, identity)

		// 滑动续期
		if jwtAuth, ok := auth.(*JWTAuthenticator); ok {
			if token, ok := jwtAuth.refresh(tokenString); ok {
				c.Header(RefreshTokenHeader, token)
			}
		}

		c.Next()
	}
}

// extractToken 优先读取 Authorization Header，其次 Cookie
func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := c.Cookie("token"); err == nil {
		return cookie
	}
	return ""
}

// GetIdentity 从上下文获取调用方身份（未登录返回 nil）
func GetIdentity(c *gin.Context) *model.Identity {
	if v, exists := c.Get(identityKey); exists {
		if identity, ok := v.(*model.Identity); ok {
			return identity
		}
	}
	return nil
}

// GetSubject 调用方用户标识（未登录返回空）
func GetSubject(c *gin.Context) string {
	if identity := GetIdentity(c); identity != nil {
		return identity.Subject
	}
	return ""
}

// GenerateToken 生成 JWT Token
func GenerateToken(identity *model.Identity, jwtSecret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:   identity.Email,
		Name:    identity.Name,
		Picture: identity.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// shouldRefresh 已经消耗了总有效期的 50% 以上
func shouldRefresh(claims *Claims) bool {
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return false
	}
	total := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	return time.Since(claims.IssuedAt.Time) > total/2
}
