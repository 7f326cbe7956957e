package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrOfferOrdersCommandIsNotConstructed = errors.New(
	"OfferOrdersCommand must be created via NewOfferOrdersCommand constructor",
)

// OfferOrdersCommand triggers one dispatch sweep: expire stale offer rounds,
// then open fresh offers for every ready order that has none.
//
// Example:
//
//	cmd := NewOfferOrdersCommand()
//	err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    log.Printf("no work this sweep: %v", err)
//	}
type OfferOrdersCommand struct {
	guard guard.ConstructorGuard
}

// NewOfferOrdersCommand creates a new command to trigger an offer sweep.
func NewOfferOrdersCommand() OfferOrdersCommand {
	return OfferOrdersCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c *OfferOrdersCommand) Validate() error {
	return c.guard.Validate(ErrOfferOrdersCommandIsNotConstructed)
}
