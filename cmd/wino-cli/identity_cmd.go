package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/paveldovnar/wino-business/crypto"
	"github.com/paveldovnar/wino-business/rpc"
)

var identityRPCCall = callRPC

func runIdentityCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, identityUsage())
		return 1
	}
	switch args[0] {
	case "create":
		return runIdentityCreate(args[1:], stdout, stderr)
	case "update":
		return runIdentityUpdate(args[1:], stdout, stderr)
	case "resolve":
		return runIdentityResolve(args[1:], stdout, stderr)
	case "at":
		return runIdentityAt(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown id subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, identityUsage())
		return 1
	}
}

func identityUsage() string {
	return strings.Join([]string{
		"Usage: wino-cli id <subcommand>",
		"  create  --key <file> --name <name> [--logo <uri>]",
		"  update  --key <file> --bump <n> --name <name> [--logo <uri>]",
		"  resolve --authority <bech32>",
		"  at      --address <0xhex>",
	}, "\n")
}

func runIdentityCreate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("id create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var keyFile, name, logo string
	fs.StringVar(&keyFile, "key", "", "wallet key file")
	fs.StringVar(&name, "name", "", "business display name")
	fs.StringVar(&logo, "logo", "", "logo URI (optional)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	if strings.TrimSpace(keyFile) == "" {
		fmt.Fprintln(stderr, "Error: --key is required")
		return 1
	}
	if name == "" {
		fmt.Fprintln(stderr, "Error: --name is required")
		return 1
	}

	key, err := loadKey(keyFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	authority := key.PubKey().Address().String()
	sig, err := crypto.Sign(rpc.CreateDigest(authority, name, logo), key)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to sign request: %v\n", err)
		return 1
	}

	params := []interface{}{map[string]interface{}{
		"authority": authority,
		"name":      name,
		"logoUri":   logo,
		"signature": "0x" + hex.EncodeToString(sig),
	}}
	result, rpcErr, err := identityRPCCall("identity_create", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runIdentityUpdate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("id update", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var keyFile, name, logo string
	var bump uint
	fs.StringVar(&keyFile, "key", "", "wallet key file")
	fs.UintVar(&bump, "bump", 0, "bump seed reported by id create")
	fs.StringVar(&name, "name", "", "new business display name")
	fs.StringVar(&logo, "logo", "", "new logo URI (empty clears it)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	if strings.TrimSpace(keyFile) == "" {
		fmt.Fprintln(stderr, "Error: --key is required")
		return 1
	}
	if name == "" {
		fmt.Fprintln(stderr, "Error: --name is required")
		return 1
	}
	if bump > 255 {
		fmt.Fprintln(stderr, "Error: --bump must be between 0 and 255")
		return 1
	}

	key, err := loadKey(keyFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	owner := key.PubKey().Address().String()
	sig, err := crypto.Sign(rpc.UpdateDigest(owner, uint8(bump), name, logo), key)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to sign request: %v\n", err)
		return 1
	}

	params := []interface{}{map[string]interface{}{
		"owner":     owner,
		"bump":      uint8(bump),
		"name":      name,
		"logoUri":   logo,
		"signature": "0x" + hex.EncodeToString(sig),
	}}
	result, rpcErr, err := identityRPCCall("identity_update", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runIdentityResolve(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("id resolve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var authority string
	fs.StringVar(&authority, "authority", "", "bech32 wallet address to look up")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	trimmed := strings.TrimSpace(authority)
	if trimmed == "" {
		fmt.Fprintln(stderr, "Error: --authority is required")
		return 1
	}
	result, rpcErr, err := identityRPCCall("identity_resolve", []interface{}{trimmed}, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runIdentityAt(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("id at", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var address string
	fs.StringVar(&address, "address", "", "derived account address as 0x-prefixed hex")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		fmt.Fprintln(stderr, "Error: --address is required")
		return 1
	}
	result, rpcErr, err := identityRPCCall("identity_at", []interface{}{trimmed}, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}
