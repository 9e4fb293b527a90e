package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(req *http.Request) (*httptest.ResponseRecorder, string) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp, seen
}

func TestMiddlewareIssuesCookie(t *testing.T) {
	resp, seen := serve(httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, seen, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestMiddlewareReusesValidCookie(t *testing.T) {
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: id})

	resp, seen := serve(req)
	assert.Equal(t, id, seen)
	assert.Empty(t, resp.Result().Cookies())
}

func TestMiddlewareReplacesMalformedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})

	resp, seen := serve(req)
	assert.NotEqual(t, "not-a-uuid", seen)
	assert.Len(t, resp.Result().Cookies(), 1)
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, FromContext(req.Context()))
}
