package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestParseToken(t *testing.T) {
	key := []byte("secret")

	tok, err := IssueToken("secret", 42, "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := ParseToken(key, tok)
	if err != nil || claims.UserID != 42 || claims.Role != "admin" {
		t.Fatalf("ParseToken = %+v, %v", claims, err)
	}

	if _, err := ParseToken([]byte("other"), tok); err == nil {
		t.Fatalf("wrong key accepted")
	}

	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString(key)
	if _, err := ParseToken(key, noUser); err == nil {
		t.Fatalf("token without user_id accepted")
	}

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: 1}).SignedString(key)
	if _, err := ParseToken(key, hs512); err == nil {
		t.Fatalf("HS512 token accepted")
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]bool{
		"Bearer abc": true,
		"bearer abc": true,
		"Basic abc":  false,
		"Bearer ":    false,
		"":           false,
	}
	for header, want := range cases {
		if _, ok := bearerToken(header); ok != want {
			t.Errorf("bearerToken(%q) ok = %v, want %v", header, ok, want)
		}
	}
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", Auth("secret"), RequireRoles("admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	cases := []struct {
		role string
		want int
	}{
		{"admin", http.StatusNoContent},
		{"ADMIN", http.StatusNoContent},
		{"", http.StatusForbidden},
		{"user", http.StatusForbidden},
	}
	for _, tc := range cases {
		tok, _ := IssueToken("secret", 5, tc.role)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("role %q: got %d, want %d", tc.role, w.Code, tc.want)
		}
	}
}
