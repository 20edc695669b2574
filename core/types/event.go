package types

// Event is the generic representation of a registry state change delivered to
// subscribers such as the RPC layer or off-chain indexers.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
