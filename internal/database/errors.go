package database

import (
	"errors"

	"sayit/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// mapError translates driver errors into the domain sentinels the services
// branch on.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return models.ErrConflict
	}
	return err
}
