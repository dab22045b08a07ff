package csvio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, []string{"client_id", "name", "phone"})
	require.NoError(t, err)

	require.NoError(t, w.Write([]string{"1", "Иван; Ко", "+79123456789"}))
	require.NoError(t, w.Write([]string{"1", "", ""}))
	require.NoError(t, w.Flush())
	assert.Equal(t, 2, w.Rows())

	// BOM first, then the header.
	raw := buf.Bytes()
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, raw[:3])

	header, records, err := ReadAll(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"client_id", "name", "phone"}, header)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"1", "Иван; Ко", "+79123456789"}, records[0])
}

func TestReadAllWithoutBOM(t *testing.T) {
	t.Parallel()

	header, records, err := ReadAll(strings.NewReader("a;b\n1;2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, header)
	assert.Equal(t, [][]string{{"1", "2"}}, records)
}

func TestReadAllEmpty(t *testing.T) {
	t.Parallel()

	_, _, err := ReadAll(strings.NewReader(""))
	assert.Error(t, err)
}
