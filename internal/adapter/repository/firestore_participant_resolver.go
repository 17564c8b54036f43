package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lapakchat/internal/domain/entity"
	"lapakchat/internal/domain/repository"
	"lapakchat/pkg/errors"
)

const (
	usersCollection = "users"
	shopsCollection = "shops"
)

// firestoreParticipantResolver probes the externally owned principal
// collections to decide whether a bare id is a buyer account or a shop.
type firestoreParticipantResolver struct {
	client *firestore.Client
}

func NewFirestoreParticipantResolver(client *firestore.Client) repository.ParticipantResolver {
	return &firestoreParticipantResolver{
		client: client,
	}
}

func (r *firestoreParticipantResolver) Resolve(ctx context.Context, id string) (entity.ParticipantRef, error) {
	if id == "" {
		return entity.ParticipantRef{}, errors.BadRequest("Participant id is required", nil)
	}

	// Internal callers may pass a typed key ("buyer:u1", "shop:s1") and skip
	// the collection probes entirely.
	if ref, err := entity.ParseParticipantKey(id); err == nil {
		return ref, nil
	}

	_, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err == nil {
		return entity.ParticipantRef{Kind: entity.KindBuyer, ID: id}, nil
	}
	if status.Code(err) != codes.NotFound {
		return entity.ParticipantRef{}, storeError("Failed to resolve participant", err)
	}

	_, err = r.client.Collection(shopsCollection).Doc(id).Get(ctx)
	if err == nil {
		return entity.ParticipantRef{Kind: entity.KindShop, ID: id}, nil
	}
	if status.Code(err) != codes.NotFound {
		return entity.ParticipantRef{}, storeError("Failed to resolve participant", err)
	}

	return entity.ParticipantRef{}, errors.NotFound("Participant", err)
}
