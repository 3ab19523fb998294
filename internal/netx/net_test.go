package netx

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/docrelay/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_OK_ForwardsRequestID(t *testing.T) {
	var gotID, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(common.RequestIDHeaderName)
		gotMethod = r.Method
		_, _ = w.Write([]byte(`[{"id":"1"}]`))
	}))
	defer srv.Close()

	ctx := context.WithValue(context.Background(), RequestIDKey{}, "req-42")
	body, err := Get(ctx, srv.Client(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, `[{"id":"1"}]`, string(body))
	assert.Equal(t, "req-42", gotID)
	assert.Equal(t, http.MethodGet, gotMethod)
}

func TestGet_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("nope"))
	}))
	defer srv.Close()

	_, err := Get(context.Background(), nil, srv.URL)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "nope", se.Body)
	assert.Equal(t, "upstream returned status 502", se.Error())
}

func TestGet_BadURL(t *testing.T) {
	_, err := Get(context.Background(), nil, "://bad")
	assert.Error(t, err)
}

func TestGet_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Get(context.Background(), nil, url)
	assert.Error(t, err)
}

func TestGet_BodyLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "at limit", size: MaxBodyBytes},
		{name: "over limit", size: MaxBodyBytes + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(bytes.Repeat([]byte("a"), tt.size))
			}))
			defer srv.Close()

			body, err := Get(context.Background(), srv.Client(), srv.URL)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBodyTooLarge)
				assert.Nil(t, body)
				return
			}
			require.NoError(t, err)
			assert.Len(t, body, tt.size)
		})
	}
}
