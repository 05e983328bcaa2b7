package repository

import (
	"os"

	"github.com/okian/palmares/pkg/logger"
)

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	logger   logger.Logger
	filePerm os.FileMode
}

func defaultOptions() options {
	return options{
		logger:   logger.Nop(),
		filePerm: 0o644,
	}
}

// WithLogger sets the logger used for store warnings.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFilePerm sets the permission bits of history files.
func WithFilePerm(perm os.FileMode) Option {
	return func(o *options) {
		if perm != 0 {
			o.filePerm = perm
		}
	}
}
