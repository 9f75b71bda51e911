package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/nerrad567/tsgate/internal/infrastructure/config"
)

// Credentials is the resolved InfluxDB credential bundle.
//
// Org and Bucket are optional: a token-only indirection (SSM parameter)
// leaves them empty and the caller keeps its configured values.
type Credentials struct {
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// ParameterClient is the subset of the SSM API the resolver depends on.
type ParameterClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SecretClient is the subset of the Secrets Manager API the resolver depends on.
type SecretClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver fetches InfluxDB credentials from AWS at startup.
//
// It supports two indirections:
//   - Secrets Manager: a secret holding a JSON bundle {token, org, bucket}
//   - SSM Parameter Store: a SecureString parameter holding just the token
//
// Secrets Manager takes precedence when both are configured.
type Resolver struct {
	cfg config.SecretsConfig
	ssm ParameterClient
	sm  SecretClient
}

// NewResolver creates a Resolver backed by the default AWS credential chain.
//
// Parameters:
//   - ctx: Context for loading the AWS configuration
//   - cfg: Secrets configuration (region and indirection names)
//
// Returns:
//   - *Resolver: Ready-to-use resolver
//   - error: If the AWS configuration cannot be loaded
func NewResolver(ctx context.Context, cfg config.SecretsConfig) (*Resolver, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: loading aws config: %w", ErrResolve, err)
	}

	return &Resolver{
		cfg: cfg,
		ssm: ssm.NewFromConfig(awsCfg),
		sm:  secretsmanager.NewFromConfig(awsCfg),
	}, nil
}

// NewResolverWithClients creates a Resolver with injected clients.
// Intended for tests.
func NewResolverWithClients(cfg config.SecretsConfig, parameters ParameterClient, secretStore SecretClient) *Resolver {
	return &Resolver{cfg: cfg, ssm: parameters, sm: secretStore}
}

// Resolve fetches the credential bundle from the configured indirection.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - Credentials: Resolved bundle (token always set on success)
//   - error: Wrapping ErrResolve if the lookup fails or yields no token
func (r *Resolver) Resolve(ctx context.Context) (Credentials, error) {
	if r.cfg.SecretID != "" {
		return r.resolveSecretBundle(ctx)
	}
	if r.cfg.TokenParameter != "" {
		return r.resolveTokenParameter(ctx)
	}
	return Credentials{}, fmt.Errorf("%w: no secret source configured", ErrResolve)
}

// resolveSecretBundle fetches and decodes the Secrets Manager JSON bundle.
func (r *Resolver) resolveSecretBundle(ctx context.Context) (Credentials, error) {
	out, err := r.sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(r.cfg.SecretID),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: fetching secret %q: %w", ErrResolve, r.cfg.SecretID, err)
	}
	if out.SecretString == nil {
		return Credentials{}, fmt.Errorf("%w: secret %q has no string value", ErrResolve, r.cfg.SecretID)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(*out.SecretString), &creds); err != nil {
		return Credentials{}, fmt.Errorf("%w: decoding secret %q: %w", ErrResolve, r.cfg.SecretID, err)
	}
	if creds.Token == "" {
		return Credentials{}, fmt.Errorf("%w: secret %q is missing token", ErrResolve, r.cfg.SecretID)
	}

	return creds, nil
}

// resolveTokenParameter fetches the token from SSM Parameter Store.
func (r *Resolver) resolveTokenParameter(ctx context.Context) (Credentials, error) {
	out, err := r.ssm.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(r.cfg.TokenParameter),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: fetching parameter %q: %w", ErrResolve, r.cfg.TokenParameter, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil || *out.Parameter.Value == "" {
		return Credentials{}, fmt.Errorf("%w: parameter %q is empty", ErrResolve, r.cfg.TokenParameter)
	}

	return Credentials{Token: *out.Parameter.Value}, nil
}

// Apply merges resolved credentials into the InfluxDB configuration.
// Empty fields in the bundle leave the configured values untouched.
func (c Credentials) Apply(cfg *config.InfluxDBConfig) {
	if c.Token != "" {
		cfg.Token = c.Token
	}
	if c.Org != "" {
		cfg.Org = c.Org
	}
	if c.Bucket != "" {
		cfg.Bucket = c.Bucket
	}
}
