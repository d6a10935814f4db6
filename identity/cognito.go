package identity

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/pkg/errors"
)

// CognitoProvider authenticates access tokens against AWS Cognito. The
// underlying client is thread safe and shared across requests.
type CognitoProvider struct {
	client *cognitoidentityprovider.Client
}

// NewCognitoProvider creates a provider with aws config located in path
// ~/.aws/config, and return error on error.
func NewCognitoProvider() (*CognitoProvider, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, err
	}
	return &CognitoProvider{
		client: cognitoidentityprovider.NewFromConfig(cfg),
	}, nil
}

func (p *CognitoProvider) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, errors.New("empty access token")
	}

	user, err := p.client.GetUser(ctx, &cognitoidentityprovider.GetUserInput{AccessToken: &token})
	if err != nil {
		return nil, err
	}

	id := &Identity{UserID: *user.Username}
	for _, attr := range user.UserAttributes {
		if attr.Name == nil || attr.Value == nil {
			continue
		}
		switch *attr.Name {
		case "name":
			id.Name = *attr.Value
		case "email":
			id.Email = *attr.Value
		case "phone_number":
			id.PhoneNumber = *attr.Value
		}
	}
	return id, nil
}
