package reconcile

import (
	"fmt"
	"strings"

	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/cluster"
	"github.com/trustification/trustify-operator/internal/constants"
)

// KeycloakHandle is what later resolvers need to know about the embedded identity provider.
type KeycloakHandle struct {
	// Name of the Keycloak custom resource.
	Name string
	// ServiceName is the Service created by the Keycloak operator.
	ServiceName string
	// HTTPEnabled is true when Keycloak serves plain HTTP.
	HTTPEnabled bool
	// TLSSecret is the secret Keycloak serves, empty when HTTPEnabled.
	TLSSecret string
	// Hostname is the frontend URL, "<proto>://<host>/auth".
	Hostname string
	// Realm and client ids provisioned by the realm import.
	Realm          string
	UIClientID     string
	ServerClientID string
}

// Scheme returns http or https.
func (h *KeycloakHandle) Scheme() string {
	if h.HTTPEnabled {
		return "http"
	}
	return "https"
}

// Port returns the port of the Keycloak service.
func (h *KeycloakHandle) Port() int32 {
	if h.HTTPEnabled {
		return constants.PortHTTP
	}
	return constants.PortHTTPS
}

// EdgePort is the Keycloak service port public routes forward to. The plain
// listener is served even when TLS is configured.
func (h *KeycloakHandle) EdgePort() int32 {
	return constants.PortHTTP
}

// InternalIssuerURL is the issuer reachable from the server pod.
func (h *KeycloakHandle) InternalIssuerURL() string {
	return fmt.Sprintf("%s://%s:%d%s/realms/%s", h.Scheme(), h.ServiceName, h.Port(), constants.KeycloakRelativePath, h.Realm)
}

// PublicIssuerURL is the issuer seen by browsers.
func (h *KeycloakHandle) PublicIssuerURL() string {
	return fmt.Sprintf("%s/realms/%s", h.Hostname, h.Realm)
}

// Pass is the per-pass context threaded through every resolver. It is created
// fresh for each reconciliation and never shared between Trustify resources.
type Pass struct {
	Trustify   *trustifyv1alpha1.Trustify
	Capability cluster.Capability

	Database DatabaseMode
	Storage  StorageMode
	Identity IdentityMode
	// IdentityErr is set when the identity spec is invalid. Kinds depending on
	// the identity mode report it instead of resolving.
	IdentityErr error

	// ServerTLSSecret is the secret served by the Trustify server, empty for plain HTTP.
	ServerTLSSecret string
	// Keycloak is set when the identity mode is embedded.
	Keycloak *KeycloakHandle
}

// NewPass normalizes the Trustify spec into a Pass.
func NewPass(cr *trustifyv1alpha1.Trustify, capability cluster.Capability) *Pass {
	p := &Pass{
		Trustify:   cr,
		Capability: capability,
		Database:   NormalizeDatabase(cr.Spec.DatabaseSpec),
		Storage:    NormalizeStorage(cr.Spec.StorageSpec),
	}
	p.Identity, p.IdentityErr = NormalizeIdentity(cr.Spec.OIDCSpec)
	return p
}

// Name returns the name of a managed object built from the Trustify name and suffix.
func (p *Pass) Name(suffix string) string {
	return p.Trustify.Name + suffix
}

// Namespace returns the Trustify namespace.
func (p *Pass) Namespace() string {
	return p.Trustify.Namespace
}

// SpecHostname returns the explicit hostname, if any.
func (p *Pass) SpecHostname() string {
	if p.Trustify.Spec.HostnameSpec == nil {
		return ""
	}
	return strings.TrimSpace(p.Trustify.Spec.HostnameSpec.Hostname)
}

// SpecTLSSecret returns the explicit HTTP TLS secret, if any.
func (p *Pass) SpecTLSSecret() string {
	if p.Trustify.Spec.HTTPSpec == nil {
		return ""
	}
	return strings.TrimSpace(p.Trustify.Spec.HTTPSpec.TLSSecret)
}

// PublicHost resolves the externally visible host: the explicit hostname first,
// then the platform issued ingress host.
func (p *Pass) PublicHost() (string, bool) {
	if h := p.SpecHostname(); h != "" {
		return h, true
	}
	return p.Capability.AutoIngressHost(p.Trustify)
}

// EmbeddedIdentity returns the embedded identity mode when active.
func (p *Pass) EmbeddedIdentity() (EmbeddedIdentity, bool) {
	if p.IdentityErr != nil {
		return EmbeddedIdentity{}, false
	}
	e, ok := p.Identity.(EmbeddedIdentity)
	return e, ok
}
