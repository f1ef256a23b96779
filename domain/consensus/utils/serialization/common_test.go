package serialization

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarBytesLengthBound(t *testing.T) {
	buf := &bytes.Buffer{}
	field := bytes.Repeat([]byte{0x5a}, MaxVarBytesLength)
	require.NoError(t, WriteVarBytes(buf, field))
	readBack, err := ReadVarBytes(buf)
	require.NoError(t, err)
	require.Equal(t, field, readBack)

	buf.Reset()
	err = WriteVarBytes(buf, make([]byte, MaxVarBytesLength+1))
	require.True(t, IsMalformedError(err))
	require.Zero(t, buf.Len())

	// A length prefix above the bound is refused before anything is read.
	prefix := make([]byte, 8)
	binary.LittleEndian.PutUint64(prefix, MaxVarBytesLength+1)
	_, err = ReadVarBytes(bytes.NewReader(prefix))
	require.True(t, IsMalformedError(err))
}

func TestVarBytesEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteVarBytes(buf, nil))
	require.Equal(t, make([]byte, 8), buf.Bytes())
	readBack, err := ReadVarBytes(buf)
	require.NoError(t, err)
	require.Empty(t, readBack)
}
