package upload

import "errors"

var (
	ErrNoFile = errors.New("no image file provided")
)
