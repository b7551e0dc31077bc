// Package domain contains the core concepts of the estimation system:
// sessions, participants and their invariants. No runtime, network, or
// storage logic should be added here.
package domain

import (
	"github.com/google/uuid"
)

// Session is a named estimation round. Participants keep their join order.
// FinalEstimate stays nil until the round is finalized; setting it never
// alters individual participant estimates.
type Session struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Participants  []Participant `json:"participants"`
	FinalEstimate *float64      `json:"finalEstimate"`
}

// Participant exists only inside its session's participant list.
// Estimate is nil until the participant submits one.
type Participant struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Estimate *float64 `json:"estimate"`
}

// NewSession builds a fresh session with its founding participant.
// Identifiers are assigned here, once, and never reassigned.
func NewSession(name, founderName string) Session {
	return Session{
		ID:           uuid.NewString(),
		Name:         name,
		Participants: []Participant{NewParticipant(founderName)},
	}
}

func NewParticipant(name string) Participant {
	return Participant{ID: uuid.NewString(), Name: name}
}

// Participant returns the member with the given id, or false when the
// session has no such member.
func (s Session) Participant(participantID string) (Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == participantID {
			return p, true
		}
	}
	return Participant{}, false
}
