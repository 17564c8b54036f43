package repository

import (
	"context"

	"lapakchat/internal/domain/entity"
)

// ParticipantResolver maps a bare principal id to a typed reference when the
// caller does not already know whether the id belongs to a buyer account or a
// seller-owned shop. The buyer and shop records themselves live outside this
// service.
type ParticipantResolver interface {
	Resolve(ctx context.Context, id string) (entity.ParticipantRef, error)
}
