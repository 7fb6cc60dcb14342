// Package keycloak manages the embedded identity provider: the Keycloak
// instance, its realm import, its TLS wiring and its database.
package keycloak

import (
	"context"
	"errors"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/trustification/trustify-operator/internal/cluster"
	"github.com/trustification/trustify-operator/internal/config"
	"github.com/trustification/trustify-operator/internal/constants"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
	"github.com/trustification/trustify-operator/internal/kube"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

// ReasonHostnameUnresolved is reported when no hostname can be derived for Keycloak.
const ReasonHostnameUnresolved = "HostnameUnresolved"

// Resolve records the Keycloak handle on p when the identity mode is embedded.
// It performs read-only lookups of the TLS secrets Keycloak may serve.
func Resolve(ctx context.Context, reader client.Reader, p *reconcile.Pass, settings *config.Settings) error {
	embedded, ok := p.EmbeddedIdentity()
	if !ok {
		p.Keycloak = nil
		return nil
	}

	name := p.Name(constants.SuffixKeycloak)
	handle := &reconcile.KeycloakHandle{
		Name:           name,
		ServiceName:    p.Name(constants.SuffixKeycloakService),
		Realm:          settings.Keycloak.Realm,
		UIClientID:     settings.Keycloak.UIClientID,
		ServerClientID: settings.Keycloak.ServerClientID,
	}

	secret, err := tlsSecret(ctx, reader, p, embedded)
	if err != nil {
		return err
	}
	handle.TLSSecret = secret
	handle.HTTPEnabled = secret == ""

	host, err := hostname(p, handle)
	if err != nil {
		return err
	}
	handle.Hostname = fmt.Sprintf("%s://%s%s", handle.Scheme(), host, constants.KeycloakRelativePath)

	p.Keycloak = handle
	return nil
}

// tlsSecret applies the TLS precedence: an explicit secret that exists, then
// the platform issued secret, then plain HTTP.
func tlsSecret(ctx context.Context, reader client.Reader, p *reconcile.Pass, embedded reconcile.EmbeddedIdentity) (string, error) {
	exists, err := kube.SecretExists(ctx, reader, p.Namespace(), embedded.TLSSecret)
	if err != nil {
		return "", err
	}
	if exists {
		return embedded.TLSSecret, nil
	}

	name, found, err := p.Capability.AutoTLSSecret(ctx, p.Trustify, cluster.PurposeKeycloak)
	if err != nil || !found {
		return "", err
	}
	return name, nil
}

// hostname applies the hostname precedence: the spec hostname, the platform
// issued ingress host, then the internal cluster host including the port.
func hostname(p *reconcile.Pass, handle *reconcile.KeycloakHandle) (string, error) {
	if host, ok := p.PublicHost(); ok {
		return host, nil
	}
	if host, ok := p.Capability.InternalClusterHost(p.Trustify); ok {
		return fmt.Sprintf("%s:%d", host, handle.Port()), nil
	}
	return "", operatorerrors.WithReason(
		operatorerrors.WrapPermanentConfig(errors.New("could not resolve a hostname for the embedded identity provider: set spec.hostname.hostname")),
		ReasonHostnameUnresolved)
}
