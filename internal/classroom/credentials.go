package classroom

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNoCredentials = errors.New("google service account credentials not configured")

// Credentials is the Google service-account key blob, as downloaded from
// the cloud console and supplied through the environment.
type Credentials struct {
	Type                string `json:"type"`
	ProjectID           string `json:"project_id"`
	PrivateKeyID        string `json:"private_key_id"`
	PrivateKey          string `json:"private_key"`
	ClientEmail         string `json:"client_email"`
	ClientID            string `json:"client_id"`
	AuthURI             string `json:"auth_uri"`
	TokenURI            string `json:"token_uri"`
	AuthProviderCertURL string `json:"auth_provider_x509_cert_url"`
	ClientCertURL       string `json:"client_x509_cert_url"`
}

// ParseCredentials decodes the service-account JSON and checks the
// fields the token exchange actually needs.
func ParseCredentials(raw string) (*Credentials, error) {
	if raw == "" {
		return nil, ErrNoCredentials
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}

	if creds.ClientEmail == "" || creds.PrivateKey == "" || creds.TokenURI == "" {
		return nil, errors.New("service account credentials missing client_email, private_key or token_uri")
	}
	return &creds, nil
}
