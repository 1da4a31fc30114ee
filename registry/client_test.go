package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/require"
)

func TestHTTPOracle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := strings.TrimPrefix(r.URL.Path, "/registered/")
		switch addr {
		case "ALICE":
			w.Write([]byte(`{"registered":true}`))
		case "BOB":
			w.Write([]byte(`{"registered":false}`))
		case "BROKEN":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	o, err := NewHTTPOracle(srv.URL, time.Second, cmtlog.NewNopLogger())
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := o.IsRegistered(ctx, "ALICE")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = o.IsRegistered(ctx, "BOB")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = o.IsRegistered(ctx, "CAROL")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = o.IsRegistered(ctx, "BROKEN")
	require.Error(t, err)
}

func TestHTTPOracleUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	o, err := NewHTTPOracle(url, 100*time.Millisecond, cmtlog.NewNopLogger())
	require.NoError(t, err)
	_, err = o.IsRegistered(context.Background(), "ALICE")
	require.Error(t, err)
}

func TestMockOracle(t *testing.T) {
	m := NewMockOracle("BOB")
	ok, err := m.IsRegistered(context.Background(), "ALICE")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = m.IsRegistered(context.Background(), "BOB")
	require.NoError(t, err)
	require.False(t, ok)
}
