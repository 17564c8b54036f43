package entity

import (
	"fmt"
	"strings"
)

// ParticipantKind distinguishes the two principal kinds that can share a
// conversation membership list.
type ParticipantKind string

const (
	KindBuyer ParticipantKind = "buyer"
	KindShop  ParticipantKind = "shop"
)

// ParticipantRef is a typed identifier: kind and id travel together so the
// two can never drift apart positionally.
type ParticipantRef struct {
	Kind ParticipantKind `json:"kind" firestore:"kind"`
	ID   string          `json:"id" firestore:"id"`
}

// Key returns the composite "kind:id" form used in membership arrays,
// Firestore array-contains queries and dedup keys.
func (p ParticipantRef) Key() string {
	return string(p.Kind) + ":" + p.ID
}

func (p ParticipantRef) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("participant id is empty")
	}
	if p.Kind != KindBuyer && p.Kind != KindShop {
		return fmt.Errorf("unknown participant kind %q", p.Kind)
	}
	return nil
}

// ParseParticipantKey is the inverse of Key.
func ParseParticipantKey(key string) (ParticipantRef, error) {
	kind, id, ok := strings.Cut(key, ":")
	if !ok {
		return ParticipantRef{}, fmt.Errorf("malformed participant key %q", key)
	}
	ref := ParticipantRef{Kind: ParticipantKind(kind), ID: id}
	if err := ref.Validate(); err != nil {
		return ParticipantRef{}, err
	}
	return ref, nil
}
