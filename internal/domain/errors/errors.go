package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrUnknownStatus     = errors.New("unknown status value")
	ErrUnknownActor      = errors.New("unknown actor")
	ErrInvalidIdentifier = errors.New("invalid order identifier")
	ErrNotOwner          = errors.New("order belongs to another customer")
	ErrOrderTerminal     = errors.New("order already in terminal state")
	ErrOrderAlreadySplit = errors.New("order already split")
	ErrNotRoot           = errors.New("order is not a root order")
)
