package lsp

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRPCFramingMultipleMessages(t *testing.T) {
	var buf bytes.Buffer
	msg1 := []byte(`{"jsonrpc":"2.0","method":"one"}`)
	msg2 := []byte(`{"jsonrpc":"2.0","method":"two"}`)
	require.NoError(t, writeMessage(&buf, msg1))
	require.NoError(t, writeMessage(&buf, msg2))

	reader := bufio.NewReader(bytes.NewReader(buf.Bytes()))
	got1, err := readMessage(reader)
	require.NoError(t, err)
	got2, err := readMessage(reader)
	require.NoError(t, err)
	assert.Equal(t, msg1, got1)
	assert.Equal(t, msg2, got2)
}

func TestJSONRPCBadHeaders(t *testing.T) {
	for _, raw := range []string{
		"Content-Type: application/json\r\n\r\n{}",
		"Content-Length: abc\r\n\r\n{}",
		"Content-Length: -1\r\n\r\n{}",
	} {
		_, err := readMessage(bufio.NewReader(strings.NewReader(raw)))
		assert.Error(t, err, raw)
	}
	_, err := readMessage(bufio.NewReader(strings.NewReader("content-length: 10\r\n\r\n{}")))
	assert.Error(t, err, "short body")
}
