package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistle/internal/session"
)

const docURI = "file:///work/main.wh"

func frame(t *testing.T, msgs ...any) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	for _, m := range msgs {
		payload, err := json.Marshal(m)
		require.NoError(t, err)
		require.NoError(t, writeMessage(&buf, payload))
	}
	return &buf
}

func request(id int, method string, params any) map[string]any {
	return map[string]any{"jsonrpc": "2.0", "id": id, "method": method, "params": params}
}

func notify(method string, params any) map[string]any {
	return map[string]any{"jsonrpc": "2.0", "method": method, "params": params}
}

func readAll(t *testing.T, out *bytes.Buffer) []rpcMessage {
	t.Helper()
	r := bufio.NewReader(out)
	var msgs []rpcMessage
	for {
		payload, err := readMessage(r)
		if errors.Is(err, io.EOF) {
			return msgs
		}
		require.NoError(t, err)
		var msg rpcMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		msgs = append(msgs, msg)
	}
}

func publishes(t *testing.T, msgs []rpcMessage) []publishDiagnosticsParams {
	t.Helper()
	var out []publishDiagnosticsParams
	for _, m := range msgs {
		if m.Method != "textDocument/publishDiagnostics" {
			continue
		}
		var p publishDiagnosticsParams
		require.NoError(t, json.Unmarshal(m.Params, &p))
		out = append(out, p)
	}
	return out
}

func TestServerSession(t *testing.T) {
	in := frame(t,
		request(1, "initialize", map[string]any{"rootUri": "file:///work"}),
		notify("initialized", map[string]any{}),
		notify("textDocument/didOpen", didOpenTextDocumentParams{TextDocument: textDocumentItem{
			URI: docURI, LanguageID: "whistle", Version: 1,
			Text: "fn main() {\n\treturn missing;\n}\n",
		}}),
		notify("textDocument/didChange", didChangeTextDocumentParams{
			TextDocument: versionedTextDocumentIdentifier{URI: docURI, Version: 2},
			ContentChanges: []textDocumentContentChangeEvent{{
				Range: &lspRange{Start: position{Line: 1, Character: 8}, End: position{Line: 1, Character: 15}},
				Text:  "0",
			}},
		}),
		notify("textDocument/didChange", didChangeTextDocumentParams{
			TextDocument:   versionedTextDocumentIdentifier{URI: docURI, Version: 2},
			ContentChanges: []textDocumentContentChangeEvent{{Text: "garbage"}},
		}),
		request(2, "textDocument/foldingRange", foldingRangeParams{TextDocument: textDocumentIdentifier{URI: docURI}}),
		request(3, "textDocument/hover", map[string]any{}),
		notify("textDocument/didClose", didCloseTextDocumentParams{TextDocument: textDocumentIdentifier{URI: docURI}}),
		request(4, "shutdown", nil),
		notify("exit", nil),
	)
	var out bytes.Buffer
	store := session.NewStore(nil)
	server := NewServer(in, &out, ServerOptions{Store: store, Version: "test"})
	err := server.Run(context.Background())
	require.ErrorIs(t, err, ErrExit)

	msgs := readAll(t, &out)
	require.NotEmpty(t, msgs)
	var init initializeResult
	require.NoError(t, json.Unmarshal(msgs[0].Result, &init))
	assert.Equal(t, textDocumentSyncIncremental, init.Capabilities.TextDocumentSync.Change)
	assert.Equal(t, "whistle", init.ServerInfo.Name)

	pubs := publishes(t, msgs)
	require.Len(t, pubs, 3, "open, accepted change and close publish; the stale change does not")

	require.Len(t, pubs[0].Diagnostics, 1)
	d := pubs[0].Diagnostics[0]
	assert.Equal(t, "SEM3005", d.Code)
	assert.Equal(t, severityError, d.Severity)
	assert.Equal(t, lspRange{Start: position{Line: 1, Character: 8}, End: position{Line: 1, Character: 15}}, d.Range)
	require.NotNil(t, pubs[0].Version)
	assert.Equal(t, int32(1), *pubs[0].Version)

	assert.Empty(t, pubs[1].Diagnostics)
	assert.Equal(t, int32(2), *pubs[1].Version)
	assert.Empty(t, pubs[2].Diagnostics)
	assert.Nil(t, pubs[2].Version)

	var sawFolding, sawMethodNotFound bool
	for _, m := range msgs {
		switch string(m.ID) {
		case "2":
			var ranges []foldingRange
			require.NoError(t, json.Unmarshal(m.Result, &ranges))
			assert.Equal(t, []foldingRange{{StartLine: 0, EndLine: 2}}, ranges)
			sawFolding = true
		case "3":
			require.NotNil(t, m.Error)
			assert.Equal(t, codeMethodNotFound, m.Error.Code)
			sawMethodNotFound = true
		}
	}
	assert.True(t, sawFolding)
	assert.True(t, sawMethodNotFound)
	assert.Empty(t, store.URIs())
}

func TestServerExitWithoutShutdown(t *testing.T) {
	var out bytes.Buffer
	server := NewServer(frame(t, notify("exit", nil)), &out, ServerOptions{})
	assert.ErrorIs(t, server.Run(context.Background()), ErrExitWithoutShutdown)
}

func TestServerEndOfInput(t *testing.T) {
	var out bytes.Buffer
	server := NewServer(bytes.NewReader(nil), &out, ServerOptions{})
	assert.NoError(t, server.Run(context.Background()))
}

func TestServerMaxDiagnosticsSetting(t *testing.T) {
	in := frame(t,
		notify("workspace/didChangeConfiguration", map[string]any{"settings": map[string]any{"whistle": map[string]any{"maxDiagnostics": 1}}}),
		notify("textDocument/didOpen", didOpenTextDocumentParams{TextDocument: textDocumentItem{
			URI: docURI, Version: 1, Text: "fn main() { return a + b; }",
		}}),
	)
	var out bytes.Buffer
	server := NewServer(in, &out, ServerOptions{})
	require.NoError(t, server.Run(context.Background()))
	pubs := publishes(t, readAll(t, &out))
	require.Len(t, pubs, 1)
	assert.Len(t, pubs[0].Diagnostics, 1)
}
