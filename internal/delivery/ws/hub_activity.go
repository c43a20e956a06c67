package ws

import (
	"sort"

	"github.com/mmuslimabdulj/tunelink/internal/domain"
)

// SetActivity overwrites the identity's activity string and announces the
// change to every other identity's connections. An identity with no live
// connection is rejected: its session is stale or never authenticated.
func (h *Hub) SetActivity(identity, activity string) error {
	if len(activity) > domain.MaxActivityLength {
		return &domain.ValidationError{Field: "activity", Reason: "too long"}
	}

	h.mu.Lock()
	if len(h.identities[identity]) == 0 {
		h.mu.Unlock()
		return domain.ErrUnknownIdentity
	}
	h.activities[identity] = activity
	recipients := h.clientsOfOthersLocked(identity)
	h.mu.Unlock()

	update := ActivityUpdatedPayload{UserID: identity, Activity: activity}
	for _, peer := range recipients {
		h.sendTo(peer, EventActivityUpdated, update)
	}
	return nil
}

// Activities returns the current activity table as identity/activity pairs
// sorted by identity. Pairs keep the wire encoding map-free, matching the
// tuple list the client rebuilds its Map from.
func (h *Hub) Activities() [][2]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.activitiesLocked()
}

func (h *Hub) activitiesLocked() [][2]string {
	pairs := make([][2]string, 0, len(h.activities))
	for identity, activity := range h.activities {
		pairs = append(pairs, [2]string{identity, activity})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	return pairs
}

// clientsOfOthersLocked snapshots every connection not owned by identity.
// Caller holds mu.
func (h *Hub) clientsOfOthersLocked(identity string) []*Client {
	recipients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if c.Identity != identity {
			recipients = append(recipients, c)
		}
	}
	return recipients
}
