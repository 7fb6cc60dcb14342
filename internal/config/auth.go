package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/trustification/trustify-operator/internal/reconcile"
)

type authDocument struct {
	Authentication authentication `yaml:"authentication"`
}

type authentication struct {
	Clients []authClient `yaml:"clients"`
}

type authClient struct {
	ClientID  string `yaml:"clientId"`
	IssuerURL string `yaml:"issuerUrl"`
}

// RenderAuthDocument renders the server auth document for the identity mode of p.
// It is empty when identity is disabled.
func RenderAuthDocument(p *reconcile.Pass) (string, error) {
	if p.IdentityErr != nil {
		return "", p.IdentityErr
	}

	var client authClient
	switch id := p.Identity.(type) {
	case reconcile.IdentityDisabled:
		return "", nil
	case reconcile.ExternalIdentity:
		client = authClient{ClientID: id.UIClientID, IssuerURL: id.ServerURL}
	case reconcile.EmbeddedIdentity:
		if p.Keycloak == nil {
			return "", errors.New("embedded identity provider has not been resolved")
		}
		client = authClient{ClientID: p.Keycloak.UIClientID, IssuerURL: p.Keycloak.InternalIssuerURL()}
	default:
		return "", fmt.Errorf("unknown identity mode %T", p.Identity)
	}

	out, err := yaml.Marshal(authDocument{Authentication: authentication{Clients: []authClient{client}}})
	if err != nil {
		return "", fmt.Errorf("failed to render auth document: %w", err)
	}
	return string(out), nil
}
