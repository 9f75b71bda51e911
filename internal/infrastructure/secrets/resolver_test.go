package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/nerrad567/tsgate/internal/infrastructure/config"
)

type fakeParameterClient struct {
	value string
	err   error
}

func (f *fakeParameterClient) GetParameter(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{Value: aws.String(f.value)},
	}, nil
}

type fakeSecretClient struct {
	value *string
	err   error
}

func (f *fakeSecretClient) GetSecretValue(_ context.Context, _ *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.value}, nil
}

func TestResolve_TokenParameter(t *testing.T) {
	cfg := config.SecretsConfig{Enabled: true, TokenParameter: "/tsgate/influxdb/token"}
	r := NewResolverWithClients(cfg, &fakeParameterClient{value: "ssm-token"}, &fakeSecretClient{})

	creds, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if creds.Token != "ssm-token" {
		t.Errorf("Token = %q, want ssm-token", creds.Token)
	}
	if creds.Org != "" || creds.Bucket != "" {
		t.Errorf("token-only resolution must leave org/bucket empty, got %q/%q", creds.Org, creds.Bucket)
	}
}

func TestResolve_SecretBundle(t *testing.T) {
	bundle := `{"token":"sm-token","org":"sm-org","bucket":"sm-bucket"}`
	cfg := config.SecretsConfig{Enabled: true, SecretID: "tsgate/influxdb"}
	r := NewResolverWithClients(cfg, &fakeParameterClient{}, &fakeSecretClient{value: &bundle})

	creds, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if creds.Token != "sm-token" || creds.Org != "sm-org" || creds.Bucket != "sm-bucket" {
		t.Errorf("unexpected bundle: %+v", creds)
	}
}

func TestResolve_SecretBundlePrecedence(t *testing.T) {
	// When both indirections are configured, Secrets Manager wins.
	bundle := `{"token":"sm-token"}`
	cfg := config.SecretsConfig{
		Enabled:        true,
		TokenParameter: "/tsgate/influxdb/token",
		SecretID:       "tsgate/influxdb",
	}
	r := NewResolverWithClients(cfg, &fakeParameterClient{value: "ssm-token"}, &fakeSecretClient{value: &bundle})

	creds, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if creds.Token != "sm-token" {
		t.Errorf("Token = %q, want sm-token", creds.Token)
	}
}

func TestResolve_MalformedBundle(t *testing.T) {
	bundle := `not-json`
	cfg := config.SecretsConfig{Enabled: true, SecretID: "tsgate/influxdb"}
	r := NewResolverWithClients(cfg, &fakeParameterClient{}, &fakeSecretClient{value: &bundle})

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrResolve) {
		t.Errorf("error = %v, want ErrResolve", err)
	}
}

func TestResolve_MissingToken(t *testing.T) {
	bundle := `{"org":"o","bucket":"b"}`
	cfg := config.SecretsConfig{Enabled: true, SecretID: "tsgate/influxdb"}
	r := NewResolverWithClients(cfg, &fakeParameterClient{}, &fakeSecretClient{value: &bundle})

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrResolve) {
		t.Errorf("error = %v, want ErrResolve", err)
	}
}

func TestResolve_LookupFailure(t *testing.T) {
	cfg := config.SecretsConfig{Enabled: true, TokenParameter: "/tsgate/influxdb/token"}
	r := NewResolverWithClients(cfg, &fakeParameterClient{err: errors.New("access denied")}, &fakeSecretClient{})

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrResolve) {
		t.Errorf("error = %v, want ErrResolve", err)
	}
}

func TestResolve_NoSource(t *testing.T) {
	r := NewResolverWithClients(config.SecretsConfig{Enabled: true}, &fakeParameterClient{}, &fakeSecretClient{})

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrResolve) {
		t.Errorf("error = %v, want ErrResolve", err)
	}
}

func TestCredentials_Apply(t *testing.T) {
	cfg := config.InfluxDBConfig{Token: "old", Org: "cfg-org", Bucket: "cfg-bucket"}

	Credentials{Token: "new"}.Apply(&cfg)

	if cfg.Token != "new" {
		t.Errorf("Token = %q, want new", cfg.Token)
	}
	if cfg.Org != "cfg-org" || cfg.Bucket != "cfg-bucket" {
		t.Errorf("empty bundle fields must not clobber config, got %q/%q", cfg.Org, cfg.Bucket)
	}
}
