// Package services holds the business rules of the storefront. Services
// take and return domain models and report failures as *apperror.Error.
package services

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperror"
	"storefront/repository"
)

// ParseID parses a hex object id, naming what in the validation error.
func ParseID(id, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.Validation("Invalid %s id", what)
	}
	return oid, nil
}

// storeErr turns a repository error into a NotFound error with message, or
// an internal error for anything other than repository.ErrNotFound.
func storeErr(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("%s", message)
	}
	return apperror.Internal(err, "Server error")
}

// detached returns a context that survives cancellation of ctx, for
// compensating writes that must run even after the request gave up.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
