package worker

import "errors"

var ErrUnknownType = errors.New("unknown capture type")
