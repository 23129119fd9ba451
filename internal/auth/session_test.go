package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/ecofinds/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = models.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}

func TestIssueAndParse(t *testing.T) {
	m := NewSessionManager("secret", time.Hour, true)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Issue(rec, alice))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	id, err := m.Parse(c.Value)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u-1", Username: "alice"}, id)
}

func TestParseRejects(t *testing.T) {
	m := NewSessionManager("secret", time.Hour, false)

	t.Run("wrong key", func(t *testing.T) {
		token, err := NewSessionManager("other", time.Hour, false).Sign(alice)
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewSessionManager("secret", time.Hour, false)
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := old.Sign(alice)
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("unsigned", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not-a-token")
		assert.Error(t, err)
	})
}

func TestMiddleware(t *testing.T) {
	m := NewSessionManager("secret", time.Hour, false)
	var got Identity
	var signedIn bool
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, signedIn = IdentityFrom(r.Context())
	}))

	t.Run("valid cookie", func(t *testing.T) {
		token, err := m.Sign(alice)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.True(t, signedIn)
		assert.Equal(t, "u-1", got.UserID)
	})

	t.Run("no cookie", func(t *testing.T) {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.False(t, signedIn)
	})

	t.Run("bad cookie is cleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "junk"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.False(t, signedIn)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})
}

func TestRequireUser(t *testing.T) {
	h := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart?x=1", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fcart%3Fx%3D1", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", nil))
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: "u-1"}))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/cart":                "/cart",
		"/listings/1?a=b":      "/listings/1?a=b",
		"//evil.example":       "/",
		"https://evil.example": "/",
		"/\\evil.example":      "/",
		"cart":                 "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeNext(in, "/"), "next=%q", in)
	}
}
