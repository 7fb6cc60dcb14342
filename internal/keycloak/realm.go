package keycloak

import (
	"encoding/json"
	"fmt"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	keycloakv2alpha1 "github.com/trustification/trustify-operator/api/keycloak/v2alpha1"
	"github.com/trustification/trustify-operator/internal/constants"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

// Scopes understood by the Trustify server.
var documentScopes = []string{
	"read:document",
	"create:document",
	"update:document",
	"delete:document",
}

type realmRepresentation struct {
	Realm               string                 `json:"realm"`
	Enabled             bool                   `json:"enabled"`
	SSLRequired         string                 `json:"sslRequired"`
	Roles               rolesRepresentation    `json:"roles"`
	DefaultRoles        []string               `json:"defaultRoles,omitempty"`
	ClientScopes        []clientScope          `json:"clientScopes"`
	DefaultClientScopes []string               `json:"defaultDefaultClientScopes"`
	Clients             []clientRepresentation `json:"clients"`
	ScopeMappings       []scopeMapping         `json:"scopeMappings"`
}

type rolesRepresentation struct {
	Realm []roleRepresentation `json:"realm"`
}

type roleRepresentation struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Composite   bool   `json:"composite"`
	Composites  *roleComposites `json:"composites,omitempty"`
}

type roleComposites struct {
	Realm []string `json:"realm"`
}

type clientScope struct {
	Name       string            `json:"name"`
	Protocol   string            `json:"protocol"`
	Attributes map[string]string `json:"attributes"`
}

type scopeMapping struct {
	ClientScope string   `json:"clientScope"`
	Roles       []string `json:"roles"`
}

type clientRepresentation struct {
	ClientID                  string   `json:"clientId"`
	Enabled                   bool     `json:"enabled"`
	PublicClient              bool     `json:"publicClient"`
	StandardFlowEnabled       bool     `json:"standardFlowEnabled"`
	DirectAccessGrantsEnabled bool     `json:"directAccessGrantsEnabled"`
	ServiceAccountsEnabled    bool     `json:"serviceAccountsEnabled"`
	RedirectURIs              []string `json:"redirectUris,omitempty"`
	WebOrigins                []string `json:"webOrigins,omitempty"`
	DefaultClientScopes       []string `json:"defaultClientScopes"`
}

const (
	roleUser  = "user"
	roleAdmin = "admin"
)

func realmDocument(handle *reconcile.KeycloakHandle, redirectOrigin string) realmRepresentation {
	scopes := make([]clientScope, 0, len(documentScopes))
	for _, s := range documentScopes {
		scopes = append(scopes, clientScope{
			Name:       s,
			Protocol:   "openid-connect",
			Attributes: map[string]string{"include.in.token.scope": "true", "display.on.consent.screen": "false"},
		})
	}

	redirect := redirectOrigin + "/*"
	if redirectOrigin == "*" {
		redirect = "*"
	}

	clientScopes := append([]string{"openid", "profile", "email"}, documentScopes...)

	return realmRepresentation{
		Realm:       handle.Realm,
		Enabled:     true,
		SSLRequired: "external",
		Roles: rolesRepresentation{Realm: []roleRepresentation{
			{Name: roleUser, Description: "Read access to documents"},
			{Name: roleAdmin, Description: "Full access to documents", Composite: true, Composites: &roleComposites{Realm: []string{roleUser}}},
		}},
		ClientScopes:        scopes,
		DefaultClientScopes: documentScopes,
		Clients: []clientRepresentation{
			{
				ClientID:            handle.UIClientID,
				Enabled:             true,
				PublicClient:        true,
				StandardFlowEnabled: true,
				RedirectURIs:        []string{redirect},
				WebOrigins:          []string{redirectOrigin},
				DefaultClientScopes: clientScopes,
			},
			{
				ClientID:               handle.ServerClientID,
				Enabled:                true,
				PublicClient:           false,
				ServiceAccountsEnabled: true,
				DefaultClientScopes:    clientScopes,
			},
		},
		ScopeMappings: []scopeMapping{
			{ClientScope: "read:document", Roles: []string{roleUser}},
			{ClientScope: "create:document", Roles: []string{roleAdmin}},
			{ClientScope: "update:document", Roles: []string{roleAdmin}},
			{ClientScope: "delete:document", Roles: []string{roleAdmin}},
		},
	}
}

// BuildRealmImport returns the one-shot import provisioning the Trustify realm.
func BuildRealmImport(p *reconcile.Pass) (*keycloakv2alpha1.KeycloakRealmImport, error) {
	if _, ok := p.EmbeddedIdentity(); !ok || p.Keycloak == nil {
		return nil, errNotResolved
	}

	origin := "*"
	if host, ok := p.PublicHost(); ok {
		scheme := "http"
		if p.SpecTLSSecret() != "" || p.Capability.CanAutoIssueTLS() {
			scheme = "https"
		}
		origin = scheme + "://" + host
	}

	raw, err := json.Marshal(realmDocument(p.Keycloak, origin))
	if err != nil {
		return nil, fmt.Errorf("failed to encode realm: %w", err)
	}

	return &keycloakv2alpha1.KeycloakRealmImport{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name(constants.SuffixKeycloakRealmImport),
			Namespace: p.Namespace(),
		},
		Spec: keycloakv2alpha1.KeycloakRealmImportSpec{
			KeycloakCRName: p.Keycloak.Name,
			Realm:          apiextensionsv1.JSON{Raw: raw},
		},
	}, nil
}
