package settings

import (
	"context"
	"errors"
)

var ErrInvalidKey = errors.New("invalid setting key")

type Repo interface {
	All(ctx context.Context) (map[string]string, error)
	Upsert(ctx context.Context, key, value string) error
}
