package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paveldovnar/wino-business/core"
	"github.com/paveldovnar/wino-business/crypto"
	"github.com/paveldovnar/wino-business/storage"
)

const testAuthToken = "local-test-token"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("WINO_RPC_TOKEN", testAuthToken)
	node := core.NewNode(storage.NewMemDB())
	return NewServer(node)
}

func newTestKey(t *testing.T) (*crypto.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key, key.PubKey().Address().String()
}

func signDigest(t *testing.T, key *crypto.PrivateKey, digest []byte) string {
	t.Helper()
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		t.Fatalf("sign digest: %v", err)
	}
	return "0x" + hex.EncodeToString(sig)
}

func doRPC(t *testing.T, s *Server, method string, params interface{}, token string) (*httptest.ResponseRecorder, RPCResponse) {
	t.Helper()
	var rawParams []json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		rawParams = []json.RawMessage{encoded}
	}
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
		"params":  rawParams,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handle(rec, req)

	var resp RPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return rec, resp
}

func decodeResult(t *testing.T, resp RPCResponse, out interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected RPC error: %d %s", resp.Error.Code, resp.Error.Message)
	}
	encoded, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("re-encode result: %v", err)
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}
