package server

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/OwenXu27/ereader/internal/config"
	"github.com/OwenXu27/ereader/internal/llm"
)

// CredentialEnvVar names the environment variable holding the upstream API
// key used by the local completion proxy. The key stays server-side; it is
// never exposed through the configuration surface or any response.
const CredentialEnvVar = "EREADER_LLM_KEY"

const proxyMaxBodyBytes = 1 << 20

// handleLLMProxy forwards a chat-completion request to the configured
// upstream, attaching the server-side credential. Relative client endpoints
// resolve here, so the key never has to live in client-visible config.
func (s *Server) handleLLMProxy(w http.ResponseWriter, r *http.Request) {
	cfg := s.configMgr.Get()
	upstream := llm.ResolveEndpoint(config.ResolveEnvVars(cfg.LLM.Upstream))

	body, err := io.ReadAll(io.LimitReader(r.Body, proxyMaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, upstream, bytes.NewReader(body))
	if err != nil {
		s.logger.Error("proxy request build failed", "upstream", upstream, "error", err)
		writeError(w, http.StatusBadGateway, "bad upstream endpoint")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv(CredentialEnvVar); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	client := &http.Client{Timeout: cfg.LLM.Timeout}
	if client.Timeout == 0 {
		client.Timeout = 60 * time.Second
	}

	resp, err := client.Do(req)
	if err != nil {
		s.logger.Warn("proxy upstream unreachable", "upstream", upstream, "error", err)
		writeError(w, http.StatusBadGateway, "upstream unreachable")
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Warn("proxy response copy failed", "error", err)
	}
}
