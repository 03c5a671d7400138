package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/breadlog-backend/internal/http/response"
	"github.com/yungbote/breadlog-backend/internal/platform/ctxutil"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

const testSecret = "rye-and-wheat"

func sign(t *testing.T, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	am := NewAuthMiddleware(logger.Nop(), testSecret)
	r.GET("/api/whoami", am.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.OwnerID(c.Request.Context()).String())
	})
	return r
}

func TestRequireAuthSetsOwner(t *testing.T) {
	owner := uuid.New()
	tok := sign(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   owner.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	authRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != owner.String() {
		t.Fatalf("owner: want=%s got=%s", owner, got)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"garbage", "Bearer not.a.token"},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		})},
		{"no expiry", "Bearer " + sign(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: uuid.NewString()})},
		{"wrong alg", "Bearer " + sign(t, jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: uuid.NewString(), ExpiresAt: future})},
		{"bad subject", "Bearer " + sign(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "baker-1", ExpiresAt: future})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			authRouter().ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status: want=%d got=%d", http.StatusUnauthorized, rec.Code)
			}
			var env response.ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != "unauthorized" {
				t.Fatalf("code: want=unauthorized got=%q", env.Error.Code)
			}
		})
	}
}
