package bridge

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func edgeRouter(service *Service) (*gin.Engine, *string) {
	r := gin.New()
	r.Use(EdgeMiddleware(service))
	var seenVariant string
	r.GET("/*path", func(c *gin.Context) {
		seenVariant = c.Query("variant")
		c.String(http.StatusOK, "ok")
	})
	return r, &seenVariant
}

func TestEdgeSkipsAssetPaths(t *testing.T) {
	service := NewServiceWith("http://localhost", "", "production", "", nil)
	r, _ := edgeRouter(service)

	for _, path := range []string{"/media/covers/b1_300px.webp", "/static/app.js", "/assets/logo.svg", "/favicon.ico"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Empty(t, w.Header().Get("Cache-Control"), "path %s", path)
		assert.Empty(t, w.Result().Cookies(), "path %s", path)
	}
}

func TestEdgeSetsIdentityAndNoStore(t *testing.T) {
	service := NewServiceWith("http://localhost", "", "production", "", nil)
	r, _ := edgeRouter(service)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))

	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, IdentityCookie, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestEdgePreservesExistingIdentity(t *testing.T) {
	service := NewServiceWith("http://localhost", "", "production", "", nil)
	r, _ := edgeRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.AddCookie(&http.Cookie{Name: IdentityCookie, Value: "visitor-42"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "visitor-42", cookies[0].Value)
}

func TestEdgeAppendsVariantQueryParam(t *testing.T) {
	manifest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"activeVariants":{"0":1}}`))
	}))
	defer manifest.Close()

	service := NewServiceWith(manifest.URL, "proj", "production", "", manifest.Client())
	r, seenVariant := edgeRouter(service)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books?sort=title", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0_1", *seenVariant)
}

func TestEdgeForwardsUnmodifiedOnFailure(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	service := NewServiceWith(broken.URL, "proj", "production", "", broken.Client())
	r, seenVariant := edgeRouter(service)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))

	// Personalization never blocks traffic
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, *seenVariant)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestIsAssetPath(t *testing.T) {
	assert.True(t, isAssetPath("/media/x.webp"))
	assert.True(t, isAssetPath("/anything/file.css"))
	assert.False(t, isAssetPath("/books"))
	assert.False(t, isAssetPath("/"))
}
