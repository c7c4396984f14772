// Package protocol defines the wire shapes shared by the client replica
// and the sync server: push batches, pull diffs and patch operations. Both
// sides must agree on these byte-for-byte; they are the replication
// contract.
package protocol

import (
	"encoding/json"

	"tripsync/pkg/mutate"
)

// PushRequest carries a client's pending mutations in client-assigned id
// order.
type PushRequest struct {
	ClientID  string            `json:"clientID"`
	Mutations []mutate.Mutation `json:"mutations"`
}

// PushResponse acknowledges a push batch.
type PushResponse struct {
	LastMutationID uint64 `json:"lastMutationID"`
}

// PullRequest asks for the diff since the client's last-known cookie.
type PullRequest struct {
	ClientID string `json:"clientID"`
	Cookie   string `json:"cookie,omitempty"`
}

// PullResponse carries the authoritative reconciliation data: the new
// cookie, how far the server has processed this client's mutations, and
// the patch to apply.
type PullResponse struct {
	Cookie         string    `json:"cookie"`
	LastMutationID uint64    `json:"lastMutationID"`
	Patch          []PatchOp `json:"patch"`
}

// Patch operation kinds. A reset patch starts with OpClear followed by a
// put per live row.
const (
	OpClear = "clear"
	OpPut   = "put"
	OpDel   = "del"
)

// PatchOp is one step of a pull patch.
type PatchOp struct {
	Op    string          `json:"op"`
	Key   string          `json:"key,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ClientState is the server's durable per-client sync record.
type ClientState struct {
	LastMutationID uint64 `json:"lastMutationID"`
	LastSeen       string `json:"lastSeen"`
}
