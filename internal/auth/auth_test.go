package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "test-key"
	testIssuer = "campus-attendance"
)

func TestIssueParse_RoundTrip(t *testing.T) {
	tok, err := Issue("student-1", "student", testIssuer, testKey, time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), tok.ExpiresAt, 5*time.Second)

	claims, err := Parse(tok.AccessToken, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "student-1", claims.Subject)
	assert.Equal(t, "student", claims.Role)

	sub, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "student-1", sub, "sub is read through the registered claims")
}

func TestParse_SubjectFromForeignIssuerToken(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "student-2",
		"role": "student",
		"iss":  testIssuer,
		"exp":  time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(testKey))
	require.NoError(t, err)

	claims, err := Parse(raw, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "student-2", claims.RegisteredClaims.Subject)
}

func TestParse_Rejects(t *testing.T) {
	good, err := Issue("s", "student", testIssuer, testKey, time.Minute)
	require.NoError(t, err)
	expired, err := Issue("s", "student", testIssuer, testKey, -time.Minute)
	require.NoError(t, err)
	noSubject, err := Issue("", "student", testIssuer, testKey, time.Minute)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "s"}}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name, token, key, issuer string
	}{
		{"wrong key", good.AccessToken, "other", testIssuer},
		{"wrong issuer", good.AccessToken, testKey, "someone-else"},
		{"expired", expired.AccessToken, testKey, testIssuer},
		{"no subject", noSubject.AccessToken, testKey, testIssuer},
		{"alg none", none, testKey, ""},
		{"garbage", "not-a-jwt", testKey, testIssuer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.token, tt.key, tt.issuer)
			assert.Error(t, err)
		})
	}
}

func newRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := []gin.HandlerFunc{Bearer(testKey, testIssuer)}
	if len(roles) > 0 {
		chain = append(chain, RequireRole(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		claims, _ := FromContext(c)
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject})
	})
	r.GET("/x", chain...)
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestBearer(t *testing.T) {
	r := newRouter()
	tok, err := Issue("student-1", "student", testIssuer, testKey, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer nope").Code)

	rec := do(r, "bearer "+tok.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sub":"student-1"}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	r := newRouter("staff", "admin")
	student, _ := Issue("s", "student", testIssuer, testKey, time.Minute)
	staff, _ := Issue("i", "staff", testIssuer, testKey, time.Minute)

	assert.Equal(t, http.StatusForbidden, do(r, "Bearer "+student.AccessToken).Code)
	assert.Equal(t, http.StatusOK, do(r, "Bearer "+staff.AccessToken).Code)
}
