package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	require.Equal(t, "1.2.3", format(1, 2, 3, ""))
	require.Equal(t, "1.2.3-nightly-42", format(1, 2, 3, "nightly-42"))
	require.Equal(t, "1.2.3", format(1, 2, 3, "bad build"))
	require.Equal(t, "1.2.3", format(1, 2, 3, "v1.0"))
}

func TestVersionIsStable(t *testing.T) {
	first := Version()
	require.Equal(t, format(appMajor, appMinor, appPatch, appBuild), first)
	require.Equal(t, first, Version())
}
