package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastemarket/mobile/internal/models"
)

func newTestClient(t *testing.T, baseURL string, mutate ...func(*Options)) *Client {
	t.Helper()
	opts := Options{
		BaseURL:         baseURL,
		WithCredentials: true,
		Logger:          zerolog.Nop(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	client, err := New(opts)
	require.NoError(t, err)
	return client
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "/api", Logger: zerolog.Nop()})
	assert.Error(t, err)
}

func TestGetSendsDefaultsAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "available", r.URL.Query().Get("status"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"products":[],"pagination":{"currentPage":1}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL+"/api/")
	var out models.ProductsResponse
	err := client.Get(context.Background(), "/products", url.Values{"status": {"available"}}, &out)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Empty(t, out.Products)
	assert.Equal(t, 1, out.Pagination.CurrentPage)
}

func TestServerErrorPassesMessageThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"success":false,"message":"Validation failed","errors":[{"field":"title","message":"Title is required"}]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	err := client.Post(context.Background(), "/products", map[string]string{}, nil)
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.False(t, apiErr.Success)
	assert.Equal(t, KindServer, apiErr.Kind)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.Equal(t, []models.FieldError{{Field: "title", Message: "Title is required"}}, apiErr.Errors)
	assert.False(t, apiErr.Unauthorized())
}

func TestServerErrorMessagePassthroughForAnyStatus(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404, 409, 422, 500, 503} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"success":false,"message":"server said no"}`)
		}))

		err := newTestClient(t, srv.URL).Get(context.Background(), "/x", nil, nil)
		srv.Close()

		assert.Equal(t, "server said no", Message(err), "status %d", status)
	}
}

func TestServerErrorWithoutMessageFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL).Get(context.Background(), "/x", nil, nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Request failed with status code 500", apiErr.Message)
	assert.Nil(t, apiErr.Errors)
}

func TestUnauthorizedIsFlagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"message":"Not authorized"}`)
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL).Get(context.Background(), "/users/profile", nil, nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.Unauthorized())
	assert.Equal(t, "Not authorized", apiErr.Message)
}

func TestNoResponseIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	err := newTestClient(t, baseURL).Get(context.Background(), "/products", nil, nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.Equal(t, NetworkErrorMessage, apiErr.Message)
	assert.Equal(t, 0, apiErr.Status)
	assert.Error(t, errors.Unwrap(apiErr))
}

func TestTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := newTestClient(t, srv.URL, func(o *Options) { o.Timeout = 50 * time.Millisecond })
	err := client.Get(context.Background(), "/slow", nil, nil)
	assert.Equal(t, NetworkErrorMessage, Message(err))
}

func TestCanceledContextIsLocalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestClient(t, srv.URL).Get(ctx, "/x", nil, nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindLocal, apiErr.Kind)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestInterceptorFailureIsLocalError(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	client := newTestClient(t, srv.URL, func(o *Options) {
		o.Interceptors = []RequestInterceptor{func(*http.Request) error { return errors.New("malformed request") }}
	})
	err := client.Get(context.Background(), "/x", nil, nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindLocal, apiErr.Kind)
	assert.Equal(t, "malformed request", apiErr.Message)
	assert.False(t, called)
}

func TestUndecodableSuccessBodyIsLocalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>not json</html>")
	}))
	defer srv.Close()

	var out models.MessageResponse
	err := newTestClient(t, srv.URL).Get(context.Background(), "/x", nil, &out)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindLocal, apiErr.Kind)
	assert.Contains(t, apiErr.Message, "decode response")
}

func TestCookiesReplayedOnlyWithCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "token", Value: "abc", Path: "/"})
			return
		}
		cookie, err := r.Cookie("token")
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"success":false,"message":"Not authorized"}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"message":"`+cookie.Value+`"}`)
	}))
	defer srv.Close()

	withCreds := newTestClient(t, srv.URL)
	require.NoError(t, withCreds.Post(context.Background(), "/login", nil, nil))
	var out models.MessageResponse
	require.NoError(t, withCreds.Get(context.Background(), "/me", nil, &out))
	assert.Equal(t, "abc", out.Message)
	assert.NotNil(t, withCreds.Jar())

	withoutCreds := newTestClient(t, srv.URL, func(o *Options) { o.WithCredentials = false })
	require.NoError(t, withoutCreds.Post(context.Background(), "/login", nil, nil))
	err := withoutCreds.Get(context.Background(), "/me", nil, nil)
	assert.Equal(t, "Not authorized", Message(err))
	assert.Nil(t, withoutCreds.Jar())
}

func TestPostMultipartBuildsFilePart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		file, header, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "photo.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, "pixels", string(data))
		assert.Equal(t, "public", r.FormValue("visibility"))
		_, _ = io.WriteString(w, `{"success":true,"imageUrl":"https://cdn.example/photo.png"}`)
	}))
	defer srv.Close()

	var out models.UploadResponse
	err := newTestClient(t, srv.URL).PostMultipart(context.Background(), "/upload/image", Multipart{
		Field:       "image",
		FileName:    "photo.png",
		ContentType: "image/png",
		Content:     strings.NewReader("pixels"),
		Fields:      map[string]string{"visibility": "public"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/photo.png", out.ImageURL)
}

func TestPostMultipartWithoutContentIsLocalError(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")
	err := client.PostMultipart(context.Background(), "/upload/image", Multipart{Field: "image"}, nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindLocal, apiErr.Kind)
}

func TestMessageForPlainError(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}
