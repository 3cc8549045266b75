package client

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rulerunner/rulerunner-go/verifying"
)

type option struct {
	httpClient *http.Client
	logger     *zap.Logger
	verifier   *verifying.ProofVerifier
}

type Option func(*option) error

// WithHTTPClient replaces the client built from the configured timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(o *option) error {
		if c == nil {
			return errors.New("http client is nil")
		}
		o.httpClient = c
		return nil
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *option) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		o.logger = logger
		return nil
	}
}

func WithVerifier(v *verifying.ProofVerifier) Option {
	return func(o *option) error {
		if v == nil {
			return errors.New("verifier is nil")
		}
		o.verifier = v
		return nil
	}
}
