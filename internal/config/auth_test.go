package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

func TestRenderAuthDocument(t *testing.T) {
	tests := []struct {
		name       string
		spec       trustifyv1alpha1.TrustifySpec
		keycloak   *reconcile.KeycloakHandle
		wantClient *authClient
		wantErr    bool
	}{
		{
			name: "disabled",
			spec: trustifyv1alpha1.TrustifySpec{},
		},
		{
			name: "external",
			spec: trustifyv1alpha1.TrustifySpec{OIDCSpec: &trustifyv1alpha1.OIDCSpec{
				Enabled:  true,
				Type:     trustifyv1alpha1.OIDCProviderExternal,
				External: &trustifyv1alpha1.ExternalOIDCSpec{ServerURL: "https://sso/realms/x", UIClientID: "ui"},
			}},
			wantClient: &authClient{ClientID: "ui", IssuerURL: "https://sso/realms/x"},
		},
		{
			name: "embedded over https",
			spec: trustifyv1alpha1.TrustifySpec{OIDCSpec: &trustifyv1alpha1.OIDCSpec{Enabled: true}},
			keycloak: &reconcile.KeycloakHandle{
				ServiceName: "demo-keycloak-service",
				TLSSecret:   "kc-tls",
				Realm:       "trustify",
				UIClientID:  "frontend",
			},
			wantClient: &authClient{ClientID: "frontend", IssuerURL: "https://demo-keycloak-service:8443/auth/realms/trustify"},
		},
		{
			name:    "embedded unresolved",
			spec:    trustifyv1alpha1.TrustifySpec{OIDCSpec: &trustifyv1alpha1.OIDCSpec{Enabled: true}},
			wantErr: true,
		},
		{
			name:    "external without sub-spec",
			spec:    trustifyv1alpha1.TrustifySpec{OIDCSpec: &trustifyv1alpha1.OIDCSpec{Enabled: true, Type: trustifyv1alpha1.OIDCProviderExternal}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPass(tt.spec)
			p.Keycloak = tt.keycloak

			doc, err := RenderAuthDocument(p)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tt.wantClient == nil {
				assert.Empty(t, doc)
				return
			}

			var parsed authDocument
			require.NoError(t, yaml.Unmarshal([]byte(doc), &parsed))
			require.Len(t, parsed.Authentication.Clients, 1)
			assert.Equal(t, *tt.wantClient, parsed.Authentication.Clients[0])
		})
	}
}
