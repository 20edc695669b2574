package rpc

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/paveldovnar/wino-business/core/identity"
	"github.com/paveldovnar/wino-business/core/state"
	"github.com/paveldovnar/wino-business/crypto"
)

type identityCreateParams struct {
	Authority string `json:"authority"`
	Name      string `json:"name"`
	LogoURI   string `json:"logoUri"`
	Signature string `json:"signature"`
}

type identityUpdateParams struct {
	Owner     string `json:"owner"`
	Bump      uint8  `json:"bump"`
	Name      string `json:"name"`
	LogoURI   string `json:"logoUri"`
	Signature string `json:"signature"`
}

type identityCreateResult struct {
	OK        bool   `json:"ok"`
	Address   string `json:"address"`
	Bump      uint8  `json:"bump"`
	CreatedAt int64  `json:"createdAt"`
}

type identityUpdateResult struct {
	OK        bool   `json:"ok"`
	Address   string `json:"address"`
	UpdatedAt int64  `json:"updatedAt"`
}

type identityRecordResult struct {
	Authority    string `json:"authority"`
	Address      string `json:"address"`
	IdentityType uint8  `json:"identityType"`
	Name         string `json:"name"`
	LogoURI      string `json:"logoUri,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
	Bump         uint8  `json:"bump"`
}

func recordResult(record *identity.BusinessIdentity, addr [32]byte) identityRecordResult {
	return identityRecordResult{
		Authority:    crypto.NewAddress(crypto.WinoPrefix, record.Authority[:]).String(),
		Address:      "0x" + hex.EncodeToString(addr[:]),
		IdentityType: record.IdentityType,
		Name:         record.Name,
		LogoURI:      record.LogoURI,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
		Bump:         record.Bump,
	}
}

// CreateDigest is the canonical payload signed by a wallet to authorise
// identity_create. Field lengths are mixed in so the encoding is unambiguous.
func CreateDigest(authority string, name, logoURI string) []byte {
	payload := fmt.Sprintf("identity_create|%s|%d|%s|%d|%s",
		strings.ToLower(strings.TrimSpace(authority)), len(name), name, len(logoURI), logoURI)
	digest := sha256.Sum256([]byte(payload))
	return digest[:]
}

// UpdateDigest is the canonical payload signed by a wallet to authorise
// identity_update against the owner's account.
func UpdateDigest(owner string, bump uint8, name, logoURI string) []byte {
	payload := fmt.Sprintf("identity_update|%s|%d|%d|%s|%d|%s",
		strings.ToLower(strings.TrimSpace(owner)), bump, len(name), name, len(logoURI), logoURI)
	digest := sha256.Sum256([]byte(payload))
	return digest[:]
}

func decodeHexBytes(value string) ([]byte, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if cleaned == "" {
		return nil, fmt.Errorf("hex value required")
	}
	return hex.DecodeString(cleaned)
}

func decodeSignedCaller(digest []byte, signature string) ([32]byte, error) {
	var caller [32]byte
	sig, err := decodeHexBytes(signature)
	if err != nil {
		return caller, err
	}
	signer, err := crypto.RecoverAddress(digest, sig)
	if err != nil {
		return caller, err
	}
	copy(caller[:], signer.Bytes())
	return caller, nil
}

func (s *Server) handleIdentityCreate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) bool {
	var params identityCreateParams
	if !decodeParamObject(w, req, &params) {
		return true
	}
	authority, err := crypto.DecodeAddress(params.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid authority", err.Error())
		return true
	}
	caller, err := decodeSignedCaller(CreateDigest(params.Authority, params.Name, params.LogoURI), params.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid signature", err.Error())
		return true
	}
	var owner [32]byte
	copy(owner[:], authority.Bytes())
	if caller != owner {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "signature does not match authority", nil)
		return true
	}
	record, addr, err := s.node.IdentityCreate(owner, params.Name, params.LogoURI)
	if err != nil {
		writeIdentityError(w, req.ID, err)
		return true
	}
	writeResult(w, req.ID, identityCreateResult{
		OK:        true,
		Address:   "0x" + hex.EncodeToString(addr[:]),
		Bump:      record.Bump,
		CreatedAt: record.CreatedAt,
	})
	return false
}

func (s *Server) handleIdentityUpdate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) bool {
	var params identityUpdateParams
	if !decodeParamObject(w, req, &params) {
		return true
	}
	ownerAddr, err := crypto.DecodeAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner", err.Error())
		return true
	}
	caller, err := decodeSignedCaller(UpdateDigest(params.Owner, params.Bump, params.Name, params.LogoURI), params.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid signature", err.Error())
		return true
	}
	var owner [32]byte
	copy(owner[:], ownerAddr.Bytes())
	record, addr, err := s.node.IdentityUpdate(caller, owner, params.Bump, params.Name, params.LogoURI)
	if err != nil {
		writeIdentityError(w, req.ID, err)
		return true
	}
	writeResult(w, req.ID, identityUpdateResult{
		OK:        true,
		Address:   "0x" + hex.EncodeToString(addr[:]),
		UpdatedAt: record.UpdatedAt,
	})
	return false
}

func (s *Server) handleIdentityResolve(w http.ResponseWriter, _ *http.Request, req *RPCRequest) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "authority parameter required", nil)
		return true
	}
	var authorityParam string
	if err := json.Unmarshal(req.Params[0], &authorityParam); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid authority parameter", err.Error())
		return true
	}
	decoded, err := crypto.DecodeAddress(authorityParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid authority", err.Error())
		return true
	}
	var authority [32]byte
	copy(authority[:], decoded.Bytes())
	record, addr, ok := s.node.IdentityResolve(authority)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeInvalidParams, "identity not found", authorityParam)
		return true
	}
	writeResult(w, req.ID, recordResult(record, addr))
	return false
}

func (s *Server) handleIdentityAt(w http.ResponseWriter, _ *http.Request, req *RPCRequest) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "address parameter required", nil)
		return true
	}
	var addressParam string
	if err := json.Unmarshal(req.Params[0], &addressParam); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address parameter", err.Error())
		return true
	}
	raw, err := decodeHexBytes(addressParam)
	if err != nil || len(raw) != 32 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "address must be 32 hex bytes", addressParam)
		return true
	}
	var addr [32]byte
	copy(addr[:], raw)
	record, ok := s.node.IdentityAt(addr)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeInvalidParams, "no identity at address", addressParam)
		return true
	}
	writeResult(w, req.ID, recordResult(record, addr))
	return false
}

func writeIdentityError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidNameLength):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, "invalid name", err.Error())
	case errors.Is(err, identity.ErrInvalidLogoURILength):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, "invalid logo uri", err.Error())
	case errors.Is(err, identity.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, "caller is not the account authority", nil)
	case errors.Is(err, state.ErrIdentityExists):
		writeError(w, http.StatusConflict, id, codeServerError, "identity account already allocated", err.Error())
	case errors.Is(err, state.ErrIdentityNotFound):
		writeError(w, http.StatusNotFound, id, codeServerError, "identity account not found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, "identity operation failed", err.Error())
	}
}
