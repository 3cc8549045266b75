package verifying

import (
	"errors"

	"go.uber.org/zap"

	"github.com/rulerunner/rulerunner-go/merkle"
)

type option struct {
	hash   merkle.HashFunc
	logger *zap.Logger
	// reject sibling and root digests that aren't 64 lowercase hex chars
	strictDigests bool
}

func defaultOpts() *option {
	return &option{
		hash:   merkle.Sha256Hex,
		logger: zap.NewNop(),
	}
}

func applyOpts(opts ...OptionFunc) (*option, error) {
	options := defaultOpts()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

type OptionFunc func(*option) error

// WithHashFunc replaces the SHA-256 digest. Roots published by the service are only
// reproducible with the default.
func WithHashFunc(hash merkle.HashFunc) OptionFunc {
	return func(o *option) error {
		if hash == nil {
			return errors.New("hash function is nil")
		}
		o.hash = hash
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *option) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		o.logger = logger
		return nil
	}
}

// WithStrictDigests makes Verify fail with ErrMalformedDigest when a sibling or the root
// is not a lowercase hex SHA-256 digest, instead of treating it as opaque text.
func WithStrictDigests() OptionFunc {
	return func(o *option) error {
		o.strictDigests = true
		return nil
	}
}
