package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cowatch/internal/model"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signClaims(t *testing.T, claims *Claims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newAuthEngine(auth Authenticator) *gin.Engine {
	r := gin.New()
	r.GET("/whoami", RequireAuth(auth), func(c *gin.Context) {
		c.String(http.StatusOK, GetSubject(c))
	})
	return r
}

func TestJWTRoundTrip(t *testing.T) {
	identity := &model.Identity{Subject: "user_1", Email: "a@example.com", Name: "Alice"}
	token, err := GenerateToken(identity, testSecret, time.Hour)
	require.NoError(t, err)

	got, err := NewJWTAuthenticator(testSecret).Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	_, err = NewJWTAuthenticator("other-secret").Authenticate(context.Background(), token)
	assert.Error(t, err)
}

func TestJWTRejectsMissingSubject(t *testing.T) {
	now := time.Now()
	token := signClaims(t, &Claims{
		Email: "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}, testSecret)

	_, err := NewJWTAuthenticator(testSecret).Authenticate(context.Background(), token)
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	r := newAuthEngine(NewJWTAuthenticator(testSecret))
	token, err := GenerateToken(&model.Identity{Subject: "user_1"}, testSecret, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		setup  func(req *http.Request)
		status int
	}{
		{"missing token", func(*http.Request) {}, http.StatusUnauthorized},
		{"garbage token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer header", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "token", Value: token}) }, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "user_1", w.Body.String())
				assert.Empty(t, w.Header().Get(RefreshTokenHeader))
			}
		})
	}
}

func TestRequireAuthSlidingRefresh(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	token := signClaims(t, &Claims{
		Email: "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_1",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(3 * time.Hour)),
		},
	}, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newAuthEngine(NewJWTAuthenticator(testSecret)).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	refreshed := w.Header().Get(RefreshTokenHeader)
	require.NotEmpty(t, refreshed)

	claims, err := NewJWTAuthenticator(testSecret).parse(refreshed)
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.Subject)
	assert.Equal(t, 3*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

type staticAuth struct{ identity *model.Identity }

func (s staticAuth) Authenticate(context.Context, string) (*model.Identity, error) {
	return s.identity, nil
}

func TestRequireAuthCustomAuthenticator(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer opaque")

	w := httptest.NewRecorder()
	newAuthEngine(staticAuth{&model.Identity{Subject: "oidc|42"}}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "oidc|42", w.Body.String())

	w = httptest.NewRecorder()
	newAuthEngine(staticAuth{&model.Identity{}}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
