package rpc

import (
	"encoding/json"
	"net/http"
)

// decodeParamObject unmarshals the single parameter object expected by the
// signed identity methods. It writes the RPC error response itself and reports
// whether decoding succeeded.
func decodeParamObject(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return false
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid request parameters", err.Error())
		return false
	}
	return true
}
