//go:build linux || darwin

package serial

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaudRateToSpeed(t *testing.T) {
	_, err := baudRateToSpeed(DefaultBaudRate)
	require.NoError(t, err)
	_, err = baudRateToSpeed(12345)
	require.Error(t, err)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
	_, err = Open(Config{Device: "/dev/wirebus-does-not-exist"})
	require.Error(t, err)
	_, err = Open(Config{Device: "/dev/null", BaudRate: 12345})
	require.Error(t, err)
}

func TestTimeoutError(t *testing.T) {
	require.True(t, os.IsTimeout(ErrTimeout))
}
