package mumps

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProbeVersion(t *testing.T) {
	assert := require.New(t)

	cases := []struct {
		name string
		aux  string
		want string
	}{
		{"plain", "5.2.1", "5.2.1"},
		{"banner", "\x00\x01DMUMPS VERSION_NUMBER 5.7.3 built\xfe", "5.7.3"},
		{"two digit components", "junk 4.10.0 junk", "4.10.0"},
		{"last match wins", "needs 4.3.0, found 5.4.0", "5.4.0"},
		{"noise between printables", "a5b.2c.1d", "5.2.1"},
	}
	for _, tc := range cases {
		aux := make([]byte, auxLength)
		copy(aux, tc.aux)
		v, err := parseProbeVersion(aux)
		assert.NoError(err, tc.name)
		assert.Equal(tc.want, v.String(), tc.name)
	}
}

func TestParseProbeVersionNotFound(t *testing.T) {
	assert := require.New(t)

	for _, aux := range []string{
		"",
		"no digits at all",
		"5.2",     // not version shaped
		"5..2..1", // nor this
	} {
		buf := make([]byte, auxLength)
		copy(buf, aux)
		_, err := parseProbeVersion(buf)
		assert.ErrorIs(err, ErrVersionNotFound, aux)
	}
}
