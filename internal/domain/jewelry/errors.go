package jewelry

import "errors"

var (
	ErrJewelryNotFound = errors.New("jewelry not found")
	ErrInvalidCategory = errors.New("invalid category")
	ErrNameRequired    = errors.New("name is required")
	ErrImageRequired   = errors.New("image is required")
	ErrImageUnreadable = errors.New("image could not be read")
	ErrNothingToUpdate = errors.New("no fields to update")
)
