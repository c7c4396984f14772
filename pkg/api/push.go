package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"tripsync/pkg/access"
	"tripsync/pkg/logger"
	"tripsync/pkg/mutate"
	"tripsync/pkg/protocol"
	"tripsync/pkg/store"
	"tripsync/pkg/telemetry"
	"tripsync/pkg/utils"
)

// handlePush replays a client's mutation batch against authoritative
// state. Mutations the server has already processed (id at or below the
// client's high-water mark) are skipped, so re-delivered batches are
// harmless. A mutator rejection is recorded and the mutation still counts
// as processed: re-running a permanently invalid mutation forever would
// wedge the client's queue.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	var req protocol.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ClientID == "" {
		utils.JSONError(w, http.StatusBadRequest, "clientID required")
		return
	}
	sort.Slice(req.Mutations, func(i, j int) bool {
		return req.Mutations[i].ID < req.Mutations[j].ID
	})

	channels := make(map[string]struct{})
	trips := make(map[string]struct{})
	var state protocol.ClientState

	err := s.st.Update(func(tx store.WriteTx) error {
		st, err := loadClientState(tx, req.ClientID)
		if err != nil {
			return err
		}
		state = st
		processed := 0
		for _, m := range req.Mutations {
			if m.ID <= state.LastMutationID {
				continue
			}
			// resolve fanout scope before the mutation destroys the rows
			// the lookup needs
			if tripID := mutate.TripScope(tx, m); tripID != "" {
				trips[tripID] = struct{}{}
				channels["trip/"+tripID] = struct{}{}
				collabs, err := access.CollaboratorsByTrip(tx, tripID)
				if err != nil {
					return err
				}
				for _, c := range collabs {
					channels["user/"+c.UserID] = struct{}{}
				}
			}
			if err := s.reg.Apply(tx, m, time.Now()); err != nil {
				logger.Warn("mutation_apply_failed",
					"client", req.ClientID, "name", m.Name, "id", m.ID, "error", err)
			} else {
				telemetry.MutationsApplied.WithLabelValues(string(m.Name), "server").Inc()
			}
			state.LastMutationID = m.ID
			processed++
		}
		if processed > 0 {
			if err := bumpVersion(tx); err != nil {
				return err
			}
		}
		// collaborators created by this batch (trip creation, invites)
		// subscribe on user channels too
		for tripID := range trips {
			collabs, err := access.CollaboratorsByTrip(tx, tripID)
			if err != nil {
				return err
			}
			for _, c := range collabs {
				channels["user/"+c.UserID] = struct{}{}
			}
		}
		state.LastSeen = time.Now().UTC().Format(time.RFC3339)
		return saveClientState(tx, req.ClientID, state)
	})
	if err != nil {
		logger.Error("push_failed", "client", req.ClientID, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	telemetry.PushBatches.Inc()
	for ch := range channels {
		s.hub.Poke(ch)
	}
	logger.Debug("push_processed", "client", req.ClientID,
		"mutations", len(req.Mutations), "acked_through", state.LastMutationID,
		"poked_channels", len(channels))
	_ = utils.JSONWrite(w, http.StatusOK, protocol.PushResponse{LastMutationID: state.LastMutationID})
}

func loadClientState(tx store.ReadTx, clientID string) (protocol.ClientState, error) {
	var state protocol.ClientState
	v, ok, err := tx.Get(store.ClientKey(clientID))
	if err != nil {
		return state, err
	}
	if ok {
		if err := json.Unmarshal(v, &state); err != nil {
			return state, err
		}
	}
	return state, nil
}

func saveClientState(tx store.WriteTx, clientID string, state protocol.ClientState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return tx.Set(store.ClientKey(clientID), b)
}

func bumpVersion(tx store.WriteTx) error {
	v, _, err := tx.Get(store.VersionKey)
	if err != nil {
		return err
	}
	n := uint64(0)
	if len(v) > 0 {
		n, _ = strconv.ParseUint(string(v), 10, 64)
	}
	return tx.Set(store.VersionKey, []byte(strconv.FormatUint(n+1, 10)))
}

func currentVersion(tx store.ReadTx) (string, error) {
	v, ok, err := tx.Get(store.VersionKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "0", nil
	}
	return string(v), nil
}
