package httputil

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCopyHTTPClientWithTimeoutNilBase(t *testing.T) {
	c := CopyHTTPClientWithTimeout(nil, 5*time.Second, false)
	require.Equal(t, 5*time.Second, c.Timeout)
}

func TestCopyHTTPClientWithTimeoutPreservesNonZeroUnlessForced(t *testing.T) {
	base := &http.Client{Timeout: 2 * time.Second}

	c := CopyHTTPClientWithTimeout(base, 5*time.Second, false)
	require.Equal(t, 2*time.Second, c.Timeout)

	c = CopyHTTPClientWithTimeout(base, 5*time.Second, true)
	require.Equal(t, 5*time.Second, c.Timeout)
	require.Equal(t, 2*time.Second, base.Timeout, "original client must not be mutated")
}
