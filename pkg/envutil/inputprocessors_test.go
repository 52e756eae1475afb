package envutil_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wrouesnel/mailpreview/pkg/envutil"
)

func TestFromEnvironment(t *testing.T) {
	t.Parallel()

	env, err := envutil.FromEnvironment([]string{"HOME=/root", "EMPTY=", "EQ=a=b"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"HOME": "/root", "EMPTY": "", "EQ": "a=b"}, env)
}

func TestFromEnvironment_Malformed(t *testing.T) {
	t.Parallel()

	_, err := envutil.FromEnvironment([]string{"GOOD=1", "BROKEN"})
	require.Error(t, err)

	var envErr envutil.EnvironmentVariablesError
	require.ErrorAs(t, err, &envErr)
	require.Equal(t, "BROKEN", envErr.RawEnvVar)
}

func TestEnvName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "MAILPREVIEW_LOGGING_LEVEL", envutil.EnvName("MAILPREVIEW", "logging.level"))
	require.Equal(t, "MAILPREVIEW_ALLOW_NO_RECIPIENT", envutil.EnvName("MAILPREVIEW", "allow-no-recipient"))
	require.Equal(t, "FORMAT", envutil.EnvName("", "format"))
}
