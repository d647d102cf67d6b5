package session

import (
	"context"
)

// Data is the identity cached for the signed-in user. It is written only by
// the login step and cleared in full on logout; no other component mutates
// it.
type Data struct {
	Name  string
	Email string
}

type Store interface {
	Get(ctx context.Context, id string) (Data, bool, error)
	Put(ctx context.Context, id string, data Data) error
	Delete(ctx context.Context, id string) error
}
