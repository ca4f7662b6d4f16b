package lsp

import "encoding/json"

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.applySettings(params.Settings)
	return nil
}

// applySettings accepts either {"whistle": {...}} or the inner object, as
// clients differ in what they send.
func (s *Server) applySettings(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return
	}
	if settings.Whistle.MaxDiagnostics == nil {
		_ = json.Unmarshal(raw, &settings.Whistle)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := settings.Whistle.MaxDiagnostics; n != nil && *n > 0 {
		s.maxDiagnostics = *n
	}
}
