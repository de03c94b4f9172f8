// Package vendorcfg loads the per-vendor lead-id extraction mapping from SSM
// Parameter Store. The provider fails open: any fetch or parse problem
// degrades to an empty mapping so ingestion keeps running on generated
// fallback identifiers.
package vendorcfg

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/vendorleads/lead-pipeline/internal/leadid"
	"github.com/vendorleads/lead-pipeline/pkg/logging"
)

// Vendors maps a lowercase vendor key to its configuration entry.
type Vendors = map[string]leadid.VendorConfig

type ssmAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Provider fetches and caches the vendors configuration parameter.
type Provider struct {
	client    ssmAPI
	paramName string
	ttl       time.Duration
	logger    *logging.Logger

	mu       sync.Mutex
	cached   Vendors
	cachedAt time.Time
}

// NewProvider builds a provider over the given SSM client. A zero ttl
// disables caching and every Load hits the parameter store.
func NewProvider(client ssmAPI, paramName string, ttl time.Duration, logger *logging.Logger) *Provider {
	if client == nil {
		panic("vendorcfg: ssm client cannot be nil")
	}
	if paramName == "" {
		panic("vendorcfg: parameter name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Provider{
		client:    client,
		paramName: paramName,
		ttl:       ttl,
		logger:    logger,
	}
}

// Load returns the vendors mapping. Callers must not treat an empty result
// as an error.
func (p *Provider) Load(ctx context.Context) Vendors {
	p.mu.Lock()
	if p.cached != nil && p.ttl > 0 && time.Since(p.cachedAt) < p.ttl {
		cached := p.cached
		p.mu.Unlock()
		return cached
	}
	p.mu.Unlock()

	vendors := p.fetch(ctx)

	p.mu.Lock()
	p.cached = vendors
	p.cachedAt = time.Now()
	p.mu.Unlock()

	return vendors
}

func (p *Provider) fetch(ctx context.Context) Vendors {
	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(p.paramName),
	})
	if err != nil {
		p.logger.Warn("vendors config fetch failed, continuing with empty mapping",
			"parameter", p.paramName,
			"error", err,
		)
		return Vendors{}
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		p.logger.Warn("vendors config parameter has no value, continuing with empty mapping",
			"parameter", p.paramName,
		)
		return Vendors{}
	}

	var raw map[string]leadid.VendorConfig
	if err := json.Unmarshal([]byte(*out.Parameter.Value), &raw); err != nil {
		p.logger.Warn("vendors config is not valid JSON, continuing with empty mapping",
			"parameter", p.paramName,
			"error", err,
		)
		return Vendors{}
	}

	vendors := make(Vendors, len(raw))
	for key, cfg := range raw {
		vendors[strings.ToLower(key)] = cfg
	}
	return vendors
}
