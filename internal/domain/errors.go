package domain

import "errors"

// ErrInvalidSessionID marks session identifiers that cannot name a
// stream: empty strings and values containing path separators, which
// would escape the engine's working directory.
var ErrInvalidSessionID = errors.New("invalid session id")
