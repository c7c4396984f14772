package api

import (
	"encoding/json"
	"net/http"
	"time"

	"tripsync/pkg/logger"
	"tripsync/pkg/protocol"
	"tripsync/pkg/store"
	"tripsync/pkg/telemetry"
	"tripsync/pkg/utils"
)

// handlePull serves the authoritative diff. When the client's cookie is
// current the patch is empty; otherwise the response is a reset patch —
// clear followed by a put per live row — which the replica applies
// atomically before rebasing its unacknowledged mutations.
func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	var req protocol.PullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ClientID == "" {
		utils.JSONError(w, http.StatusBadRequest, "clientID required")
		return
	}

	var resp protocol.PullResponse
	err := s.st.Update(func(tx store.WriteTx) error {
		cookie, err := currentVersion(tx)
		if err != nil {
			return err
		}
		state, err := loadClientState(tx, req.ClientID)
		if err != nil {
			return err
		}
		resp.Cookie = cookie
		resp.LastMutationID = state.LastMutationID
		if req.Cookie != cookie {
			patch, err := resetPatch(tx)
			if err != nil {
				return err
			}
			resp.Patch = patch
		}
		state.LastSeen = time.Now().UTC().Format(time.RFC3339)
		return saveClientState(tx, req.ClientID, state)
	})
	if err != nil {
		logger.Error("pull_failed", "client", req.ClientID, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	telemetry.Pulls.Inc()
	telemetry.PullPatchOps.Observe(float64(len(resp.Patch)))
	logger.Debug("pull_served", "client", req.ClientID,
		"cookie", resp.Cookie, "patch_ops", len(resp.Patch))
	_ = utils.JSONWrite(w, http.StatusOK, resp)
}

// resetPatch snapshots every live entity row.
func resetPatch(tx store.ReadTx) ([]protocol.PatchOp, error) {
	patch := []protocol.PatchOp{{Op: protocol.OpClear}}
	for _, prefix := range store.EntityPrefixes {
		err := tx.Scan(prefix, func(key string, value []byte) error {
			patch = append(patch, protocol.PatchOp{
				Op:    protocol.OpPut,
				Key:   key,
				Value: json.RawMessage(append([]byte(nil), value...)),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return patch, nil
}
