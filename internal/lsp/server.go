// Package lsp serves whistle diagnostics over the Language Server Protocol
// on stdio.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"

	"whistle/internal/session"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	// Store holds open documents. A fresh store is created when nil.
	Store          *session.Store
	Logger         *slog.Logger
	MaxDiagnostics int
	Version        string
}

// Server handles stdio JSON-RPC for whistle.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	store  *session.Store
	logger *slog.Logger

	mu                sync.Mutex
	shutdownRequested bool
	maxDiagnostics    int
	version           string
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	store := opts.Store
	if store == nil {
		store = session.NewStore(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	maxDiagnostics := opts.MaxDiagnostics
	if maxDiagnostics <= 0 {
		maxDiagnostics = 100
	}
	return &Server{
		in:             bufio.NewReader(in),
		out:            bufio.NewWriter(out),
		store:          store,
		logger:         logger,
		maxDiagnostics: maxDiagnostics,
		version:        opts.Version,
	}
}

// Run serves LSP requests until exit or end of input.
func (s *Server) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn("failed to parse message", "err", err)
			if sendErr := s.sendError(json.RawMessage("null"), codeParseError, "parse error"); sendErr != nil {
				return sendErr
			}
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(ctx, &msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, msg *rpcMessage) error {
	s.logger.Debug("request", "method", msg.Method)
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(ctx, msg)
	case "textDocument/didChange":
		return s.handleDidChange(ctx, msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/foldingRange":
		return s.handleFoldingRange(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	if len(params.InitializationOptions) > 0 {
		s.applySettings(params.InitializationOptions)
	}
	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    textDocumentSyncIncremental,
			},
			FoldingRangeProvider: true,
		},
		ServerInfo: serverInfo{Name: "whistle", Version: s.version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	for _, uri := range s.store.URIs() {
		if err := s.store.Close(uri); err != nil {
			s.logger.Debug("close on shutdown", "uri", uri, "err", err)
		}
	}
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(ctx context.Context, msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("didOpen: invalid params", "err", err)
		return nil
	}
	doc := params.TextDocument
	if doc.URI == "" {
		return nil
	}
	st, err := s.store.Open(ctx, doc.URI, doc.Text, doc.Version)
	if errors.Is(err, session.ErrAlreadyOpen) {
		// Some clients reopen without closing; treat it as a full change.
		st, err = s.store.Change(ctx, doc.URI, doc.Text, doc.Version)
	}
	if err != nil {
		s.logger.Warn("didOpen failed", "uri", doc.URI, "err", err)
		return nil
	}
	return s.publish(st)
}

func (s *Server) handleDidChange(ctx context.Context, msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("didChange: invalid params", "err", err)
		return nil
	}
	uri := params.TextDocument.URI
	current, ok := s.store.Get(uri)
	if !ok {
		s.logger.Warn("didChange for a document that is not open", "uri", uri)
		return nil
	}
	text := applyChanges(current.Text, params.ContentChanges)
	st, err := s.store.Change(ctx, uri, text, params.TextDocument.Version)
	switch {
	case errors.Is(err, session.ErrStaleVersion):
		s.logger.Debug("ignoring stale change", "uri", uri, "err", err)
		return nil
	case err != nil:
		s.logger.Warn("didChange failed", "uri", uri, "err", err)
		return nil
	}
	return s.publish(st)
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	st, ok := s.store.Get(params.TextDocument.URI)
	if !ok {
		return nil
	}
	return s.publish(st)
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	uri := params.TextDocument.URI
	if err := s.store.Close(uri); err != nil {
		s.logger.Debug("didClose", "uri", uri, "err", err)
		return nil
	}
	return s.sendPublish(uri, nil, nil)
}

func (s *Server) publish(st session.DocumentState) error {
	s.mu.Lock()
	limit := s.maxDiagnostics
	s.mu.Unlock()
	version := st.Version
	return s.sendPublish(st.URI, &version, toLSPDiagnostics(st.Text, st.Diagnostics, limit))
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, version *int32, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Version:     version,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}
