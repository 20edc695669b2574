package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/paveldovnar/wino-business/crypto"
)

var rpcEndpoint = defaultRPCEndpoint()
var rpcAuthToken = os.Getenv("WINO_RPC_TOKEN")

func main() {
	args := os.Args[1:]
	var err error
	args, err = applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(args) < 1 {
		printUsage()
		return
	}

	switch args[0] {
	case "generate-key":
		generateKey()
	case "id":
		if code := runIdentityCommand(args[1:], os.Stdout, os.Stderr); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: wino-cli [--rpc <url>] <command>")
	fmt.Println("Commands:")
	fmt.Println("  generate-key                          Generate a wallet key and save it to wallet.key")
	fmt.Println("  id create --key <file> --name <name> [--logo <uri>]")
	fmt.Println("  id update --key <file> --bump <n> --name <name> [--logo <uri>]")
	fmt.Println("  id resolve --authority <bech32>")
	fmt.Println("  id at --address <0xhex>")
	fmt.Println("Environment:")
	fmt.Println("  WINO_RPC_URL    RPC endpoint (default http://localhost:8080)")
	fmt.Println("  WINO_RPC_TOKEN  Bearer token for id create / id update")
}

func defaultRPCEndpoint() string {
	if url := strings.TrimSpace(os.Getenv("WINO_RPC_URL")); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// applyGlobalFlags strips --rpc <url> from anywhere in the argument list so
// subcommand flag sets never see it.
func applyGlobalFlags(args []string) ([]string, error) {
	remaining := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--rpc" || arg == "-rpc":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--rpc requires a URL argument")
			}
			rpcEndpoint = strings.TrimSpace(args[i+1])
			i++
		case strings.HasPrefix(arg, "--rpc="):
			rpcEndpoint = strings.TrimSpace(strings.TrimPrefix(arg, "--rpc="))
		default:
			remaining = append(remaining, arg)
		}
	}
	if rpcEndpoint == "" {
		return nil, fmt.Errorf("RPC endpoint must not be empty")
	}
	return remaining, nil
}

func generateKey() {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		panic(err)
	}

	fileName := "wallet.key"
	if _, err := os.Stat(fileName); err == nil {
		fmt.Fprintf(os.Stderr, "Refusing to overwrite existing %s\n", fileName)
		os.Exit(1)
	}
	if err := os.WriteFile(fileName, key.Bytes(), 0600); err != nil {
		panic(fmt.Sprintf("Failed to save key to %s: %v", fileName, err))
	}

	fmt.Printf("Generated new key and saved to %s\n", fileName)
	fmt.Printf("Your wallet address is: %s\n", key.PubKey().Address().String())
	fmt.Println("Store this file securely. It authorises changes to your business identity.")
}

func loadKey(path string) (*crypto.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	key, err := crypto.PrivateKeyFromBytes(bytes.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid key material in %s: %w", path, err)
	}
	return key, nil
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func callRPC(method string, params []interface{}, requireAuth bool) (json.RawMessage, *rpcError, error) {
	payload := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method, "params": params}
	body, _ := json.Marshal(payload)
	resp, err := doRPCRequest(body, requireAuth)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, nil, fmt.Errorf("failed to decode response from node")
	}
	return rpcResp.Result, rpcResp.Error, nil
}

func doRPCRequest(payload []byte, requireAuth bool) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, rpcEndpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if requireAuth {
		if rpcAuthToken == "" {
			return nil, fmt.Errorf("privileged RPC call requires WINO_RPC_TOKEN to be set")
		}
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(rpcAuthToken))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", rpcEndpoint, err)
	}
	return resp, nil
}

func handleRPCError(w io.Writer, err *rpcError) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "RPC error %d: %s\n", err.Code, err.Message)
	return 1
}

func handleRPCCallError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(w, err)
	return 1
}

func writeRPCResult(w io.Writer, result json.RawMessage) {
	if len(result) == 0 {
		fmt.Fprintln(w, "null")
		return
	}
	if _, err := w.Write(result); err == nil {
		if result[len(result)-1] != '\n' {
			fmt.Fprintln(w)
		}
	}
}
