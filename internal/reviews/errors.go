package reviews

import "errors"

var ErrNotFound = errors.New("review not found")
