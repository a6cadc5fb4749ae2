package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"chat-gateway/internal/credentials"
)

// ssmAPI is the minimal AWS SSM interface required by Client.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Client wraps an AWS SSM API for parameter retrieval.
type Client struct {
	api ssmAPI
}

// New creates a Client with the given SSM API implementation.
func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	withDecryption := true
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.New("paramstore: parameter missing value")
	}
	return *out.Parameter.Value, nil
}

// Source adapts the Client into a credentials.Source for the Lambda
// deployment, where provider keys live in SSM instead of the environment.
// A credential name such as OPENAI_API_KEY maps onto the parameter path
// <prefix>/openai-api-key; a parameter that does not exist is reported as a
// credentials.Missing for that name, matching the env-backed source.
type Source struct {
	client *Client
	prefix string
}

// NewSource creates a Source reading parameters under the given path prefix.
func NewSource(client *Client, prefix string) (*Source, error) {
	if client == nil {
		return nil, errors.New("paramstore: client must not be nil")
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil, errors.New("paramstore: prefix must not be empty")
	}
	return &Source{client: client, prefix: prefix}, nil
}

func (s *Source) Lookup(ctx context.Context, name string) (string, error) {
	v, err := s.client.GetParameter(ctx, s.parameterName(name))
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", &credentials.Missing{Name: name}
		}
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", &credentials.Missing{Name: name}
	}
	return v, nil
}

func (s *Source) parameterName(credential string) string {
	return s.prefix + "/" + strings.ToLower(strings.ReplaceAll(credential, "_", "-"))
}
