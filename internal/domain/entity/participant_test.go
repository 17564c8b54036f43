package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParticipantKey(t *testing.T) {
	ref := ParticipantRef{Kind: KindBuyer, ID: "u1"}
	assert.Equal(t, "buyer:u1", ref.Key())

	shop := ParticipantRef{Kind: KindShop, ID: "s1"}
	assert.Equal(t, "shop:s1", shop.Key())
}

func TestParticipantValidate(t *testing.T) {
	assert.NoError(t, ParticipantRef{Kind: KindBuyer, ID: "u1"}.Validate())
	assert.Error(t, ParticipantRef{Kind: KindBuyer}.Validate())
	assert.Error(t, ParticipantRef{Kind: "admin", ID: "x"}.Validate())
}

func TestParseParticipantKey(t *testing.T) {
	ref, err := ParseParticipantKey("shop:s9")
	assert.NoError(t, err)
	assert.Equal(t, ParticipantRef{Kind: KindShop, ID: "s9"}, ref)

	_, err = ParseParticipantKey("nocolon")
	assert.Error(t, err)

	_, err = ParseParticipantKey("robot:r1")
	assert.Error(t, err)
}
