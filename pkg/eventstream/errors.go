package eventstream

import "errors"

// ErrNilBackupEvent indicates a nil backup event payload was provided to a publisher.
var ErrNilBackupEvent = errors.New("nil backup event")
