package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/rulerunner/rulerunner-go/config"
	"github.com/rulerunner/rulerunner-go/shared"
	"github.com/rulerunner/rulerunner-go/verifying"
)

const (
	CompliancePath = "/api/v1/isCompliant"
	HealthPath     = "/api/v1/health"

	apiKeyHeader = "X-API-Key"

	defaultAPIErrorMessage = "API request failed"
	noResponseErrorMessage = "No response received from server"
	maxErrorBodyLen        = 1 << 16
)

// Client talks to the RuleRunner compliance service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	verifier   *verifying.ProofVerifier
}

func New(cfg config.Config, opts ...Option) (*Client, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, shared.NewError(shared.KindGeneric, "", err)
	}

	options := &option{logger: zap.NewNop()}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if options.httpClient == nil {
		options.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if options.verifier == nil {
		v, err := verifying.NewProofVerifier(verifying.WithLogger(options.logger))
		if err != nil {
			return nil, err
		}
		options.verifier = v
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: options.httpClient,
		logger:     options.logger,
		verifier:   options.verifier,
	}, nil
}

// IsCompliant asks the service whether a transfer between req's addresses is allowed.
func (c *Client) IsCompliant(ctx context.Context, req shared.ComplianceRequest) (*shared.ComplianceResponse, error) {
	var resp shared.ComplianceResponse
	if err := c.do(ctx, http.MethodPost, CompliancePath, req, &resp); err != nil {
		return nil, err
	}
	c.logger.Debug("compliance checked",
		zap.String("from", req.FromAddress),
		zap.String("to", req.ToAddress),
		zap.Bool("compliant", resp.IsCompliant),
		zap.Strings("lists", resp.CheckedLists),
	)
	return &resp, nil
}

func (c *Client) HealthCheck(ctx context.Context) (*shared.HealthResponse, error) {
	var resp shared.HealthResponse
	if err := c.do(ctx, http.MethodGet, HealthPath, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyProofLocally checks a proof returned by the service without contacting it.
func (c *Client) VerifyProofLocally(address string, proof shared.Proof, root string) (bool, error) {
	return c.verifier.Verify(address, proof, root)
}

// CheckResult is a compliance response together with the local verdict on its proofs.
type CheckResult struct {
	Response     *shared.ComplianceResponse
	Verification verifying.ComplianceVerification
}

// CheckAndVerify calls IsCompliant and verifies any proofs in the response locally.
func (c *Client) CheckAndVerify(ctx context.Context, req shared.ComplianceRequest) (*CheckResult, error) {
	resp, err := c.IsCompliant(ctx, req)
	if err != nil {
		return nil, err
	}
	verification, err := c.verifier.VerifyCompliance(ctx, req, resp)
	if err != nil {
		return nil, err
	}
	if !verification.Valid() {
		c.logger.Warn("service returned a proof that doesn't match its merkle root",
			zap.String("from", req.FromAddress),
			zap.String("to", req.ToAddress),
			zap.String("root", resp.MerkleRoot),
		)
	}
	return &CheckResult{Response: resp, Verification: verification}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return shared.NewError(shared.KindGeneric, "failed to encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return shared.NewError(shared.KindGeneric, "failed to create request", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return shared.NewError(shared.KindConnection, noResponseErrorMessage, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		err := apiError(res)
		c.logger.Debug("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", res.StatusCode),
			zap.Error(err),
		)
		return err
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return shared.NewError(shared.KindGeneric, fmt.Sprintf("failed to decode %s response", path), err)
	}
	return nil
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// apiError builds a KindAPI error from the body's "detail" field, which the service
// fills with a string or, for validation failures, a list of objects.
func apiError(res *http.Response) error {
	msg := defaultAPIErrorMessage

	data, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBodyLen))
	if err == nil {
		var body errorBody
		if json.Unmarshal(data, &body) == nil && len(body.Detail) > 0 && string(body.Detail) != "null" {
			var detail string
			if json.Unmarshal(body.Detail, &detail) == nil {
				if detail != "" {
					msg = detail
				}
			} else {
				msg = string(body.Detail)
			}
		}
	}
	return shared.NewAPIError(res.StatusCode, msg)
}

// IsAPIError reports whether err was returned because the service rejected a request.
func IsAPIError(err error) bool {
	return errors.Is(err, shared.ErrAPI)
}

// IsConnectionError reports whether err was returned because the service couldn't be reached.
func IsConnectionError(err error) bool {
	return errors.Is(err, shared.ErrConnection)
}
