package user

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	domain "realtime-users/internal/domain/user"
	apperrors "realtime-users/pkg/errors"
)

// Gateway implements MutationGateway on top of a Collection.
// New records get ULID keys so that the store's key order is creation order.
type Gateway struct {
	coll  Collection
	root  string
	log   *zap.Logger
	newID func() string
}

// NewGateway creates a gateway writing into the given collection root.
func NewGateway(coll Collection, root string, log *zap.Logger) *Gateway {
	return &Gateway{
		coll:  coll,
		root:  root,
		log:   log,
		newID: func() string { return ulid.Make().String() },
	}
}

// Create allocates a new id and writes the record under it.
// The returned id is only meaningful when err is nil.
func (g *Gateway) Create(ctx context.Context, name, email string) (string, error) {
	id := g.newID()
	path := domain.Path(g.root, id)

	if err := g.coll.Write(ctx, path, domain.User{ID: id, Name: name, Email: email}); err != nil {
		g.log.Error("failed to create user", zap.String("path", path), zap.Error(err))
		return "", storeError("create", path, err)
	}

	g.log.Info("user created", zap.String("id", id))
	return id, nil
}

// Update overwrites the record at id. A missing id is created by the store.
func (g *Gateway) Update(ctx context.Context, id, name, email string) error {
	if id == "" {
		return apperrors.NewValidationError("ID", "ID is required")
	}
	path := domain.Path(g.root, id)

	if err := g.coll.Write(ctx, path, domain.User{ID: id, Name: name, Email: email}); err != nil {
		g.log.Error("failed to update user", zap.String("path", path), zap.Error(err))
		return storeError("update", path, err)
	}

	g.log.Info("user updated", zap.String("id", id))
	return nil
}

// Delete removes the record at id. Deleting a missing id succeeds.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.NewValidationError("ID", "ID is required")
	}
	path := domain.Path(g.root, id)

	if err := g.coll.Remove(ctx, path); err != nil {
		g.log.Error("failed to delete user", zap.String("path", path), zap.Error(err))
		return storeError("delete", path, err)
	}

	g.log.Info("user deleted", zap.String("id", id))
	return nil
}

func storeError(op, path string, err error) error {
	var storeErr *apperrors.StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return apperrors.NewStoreError(op, path, err)
}
