package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paveldovnar/wino-business/crypto"
	"github.com/paveldovnar/wino-business/rpc"
)

func decodeSigHex(value string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(value, "0x"))
}

func TestIdentityCommandArgValidation(t *testing.T) {
	originalCall := identityRPCCall
	identityRPCCall = func(method string, params []interface{}, requireAuth bool) (json.RawMessage, *rpcError, error) {
		t.Fatalf("unexpected RPC call for method %s", method)
		return nil, nil, nil
	}
	defer func() { identityRPCCall = originalCall }()

	cases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "create_missing_key", args: []string{"create", "--name", "Acme"}, wantErr: "--key is required"},
		{name: "create_missing_name", args: []string{"create", "--key", "wallet.key"}, wantErr: "--name is required"},
		{name: "update_missing_key", args: []string{"update", "--name", "Acme"}, wantErr: "--key is required"},
		{name: "update_bump_out_of_range", args: []string{"update", "--key", "wallet.key", "--name", "Acme", "--bump", "300"}, wantErr: "--bump must be between 0 and 255"},
		{name: "resolve_missing_authority", args: []string{"resolve"}, wantErr: "--authority is required"},
		{name: "at_missing_address", args: []string{"at"}, wantErr: "--address is required"},
		{name: "unknown_subcommand", args: []string{"destroy"}, wantErr: "Unknown id subcommand"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}
			exit := runIdentityCommand(tc.args, stdout, stderr)
			if exit != 1 {
				t.Fatalf("unexpected exit code: got %d, want 1", exit)
			}
			if stdout.Len() != 0 {
				t.Fatalf("expected empty stdout, got %q", stdout.String())
			}
			if !strings.Contains(stderr.String(), tc.wantErr) {
				t.Fatalf("stderr %q does not mention %q", stderr.String(), tc.wantErr)
			}
		})
	}
}

func writeTestKey(t *testing.T) (string, *crypto.PrivateKey) {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "wallet.key")
	if err := os.WriteFile(path, key.Bytes(), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	return path, key
}

func TestIdentityCreateSignsAsWalletOwner(t *testing.T) {
	keyFile, key := writeTestKey(t)
	authority := key.PubKey().Address().String()

	originalCall := identityRPCCall
	defer func() { identityRPCCall = originalCall }()

	var captured map[string]interface{}
	identityRPCCall = func(method string, params []interface{}, requireAuth bool) (json.RawMessage, *rpcError, error) {
		if method != "identity_create" {
			t.Fatalf("unexpected method %s", method)
		}
		if !requireAuth {
			t.Fatalf("identity_create must require auth")
		}
		if len(params) != 1 {
			t.Fatalf("expected one param object, got %d", len(params))
		}
		captured = params[0].(map[string]interface{})
		return json.RawMessage(`{"ok":true}`), nil, nil
	}

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	exit := runIdentityCommand([]string{"create", "--key", keyFile, "--name", "Acme Wines", "--logo", "https://acme.example/logo.png"}, stdout, stderr)
	if exit != 0 {
		t.Fatalf("unexpected exit code %d: %s", exit, stderr.String())
	}
	if captured["authority"] != authority {
		t.Fatalf("authority mismatch: got %v want %s", captured["authority"], authority)
	}

	sigHex, _ := captured["signature"].(string)
	sig, err := decodeSigHex(sigHex)
	if err != nil {
		t.Fatalf("bad signature encoding: %v", err)
	}
	digest := rpc.CreateDigest(authority, "Acme Wines", "https://acme.example/logo.png")
	signer, err := crypto.RecoverAddress(digest, sig)
	if err != nil {
		t.Fatalf("recover signer: %v", err)
	}
	if signer.String() != authority {
		t.Fatalf("signature does not recover to the wallet address")
	}
	if !strings.Contains(stdout.String(), `"ok":true`) {
		t.Fatalf("expected RPC result on stdout, got %q", stdout.String())
	}
}

func TestIdentityUpdateSignsWithBump(t *testing.T) {
	keyFile, key := writeTestKey(t)
	owner := key.PubKey().Address().String()

	originalCall := identityRPCCall
	defer func() { identityRPCCall = originalCall }()

	var captured map[string]interface{}
	identityRPCCall = func(method string, params []interface{}, requireAuth bool) (json.RawMessage, *rpcError, error) {
		if method != "identity_update" {
			t.Fatalf("unexpected method %s", method)
		}
		captured = params[0].(map[string]interface{})
		return json.RawMessage(`{"ok":true}`), nil, nil
	}

	exit := runIdentityCommand([]string{"update", "--key", keyFile, "--bump", "254", "--name", "Renamed"}, &bytes.Buffer{}, &bytes.Buffer{})
	if exit != 0 {
		t.Fatalf("unexpected exit code %d", exit)
	}
	if captured["owner"] != owner {
		t.Fatalf("owner mismatch: got %v", captured["owner"])
	}
	if captured["bump"] != uint8(254) {
		t.Fatalf("bump mismatch: got %v", captured["bump"])
	}

	sigHex, _ := captured["signature"].(string)
	sig, err := decodeSigHex(sigHex)
	if err != nil {
		t.Fatalf("bad signature encoding: %v", err)
	}
	signer, err := crypto.RecoverAddress(rpc.UpdateDigest(owner, 254, "Renamed", ""), sig)
	if err != nil {
		t.Fatalf("recover signer: %v", err)
	}
	if signer.String() != owner {
		t.Fatalf("signature does not recover to the wallet address")
	}
}

func TestIdentityResolvePassesAuthorityThrough(t *testing.T) {
	originalCall := identityRPCCall
	defer func() { identityRPCCall = originalCall }()

	identityRPCCall = func(method string, params []interface{}, requireAuth bool) (json.RawMessage, *rpcError, error) {
		if method != "identity_resolve" {
			t.Fatalf("unexpected method %s", method)
		}
		if requireAuth {
			t.Fatalf("identity_resolve must not require auth")
		}
		if params[0] != "wino1example" {
			t.Fatalf("unexpected param %v", params[0])
		}
		return nil, &rpcError{Code: -32602, Message: "identity not found"}, nil
	}

	stderr := &bytes.Buffer{}
	exit := runIdentityCommand([]string{"resolve", "--authority", "wino1example"}, &bytes.Buffer{}, stderr)
	if exit != 1 {
		t.Fatalf("expected RPC error exit code, got %d", exit)
	}
	if !strings.Contains(stderr.String(), "identity not found") {
		t.Fatalf("expected error message on stderr, got %q", stderr.String())
	}
}
