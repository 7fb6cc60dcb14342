package keycloak

import (
	"errors"
	"fmt"
	"strconv"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	keycloakv2alpha1 "github.com/trustification/trustify-operator/api/keycloak/v2alpha1"
	"github.com/trustification/trustify-operator/internal/cluster"
	"github.com/trustification/trustify-operator/internal/conditions"
	"github.com/trustification/trustify-operator/internal/config"
	"github.com/trustification/trustify-operator/internal/constants"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
	"github.com/trustification/trustify-operator/internal/infra"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

var errNotResolved = errors.New("embedded identity provider has not been resolved")

// BuildKeycloak returns the Keycloak instance for the embedded identity provider.
func BuildKeycloak(p *reconcile.Pass, settings *config.Settings) (*keycloakv2alpha1.Keycloak, error) {
	embedded, ok := p.EmbeddedIdentity()
	if !ok || p.Keycloak == nil {
		return nil, errNotResolved
	}

	db, err := databaseSpec(p, embedded)
	if err != nil {
		return nil, err
	}
	resources, err := config.Requirements(settings.Resources.Keycloak, nil)
	if err != nil {
		return nil, err
	}

	// The plain listener stays on next to TLS: the Ingress and HTTPRoute
	// terminate at the edge and forward /auth to it.
	http := &keycloakv2alpha1.HTTPSpec{HTTPEnabled: true}
	if !p.Keycloak.HTTPEnabled {
		http.TLSSecret = p.Keycloak.TLSSecret
	}

	return &keycloakv2alpha1.Keycloak{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Keycloak.Name,
			Namespace: p.Namespace(),
		},
		Spec: keycloakv2alpha1.KeycloakSpec{
			Instances: ptr.To[int64](1),
			Resources: &resources,
			DB:        db,
			HTTP:      http,
			Hostname: &keycloakv2alpha1.HostnameSpec{
				Hostname:           p.Keycloak.Hostname,
				BackchannelDynamic: true,
			},
			Ingress: &keycloakv2alpha1.IngressSpec{Enabled: false},
			AdditionalOptions: []keycloakv2alpha1.AdditionalOption{
				{Name: "proxy-headers", Value: "xforwarded"},
				{Name: "http-relative-path", Value: constants.KeycloakRelativePath},
				{Name: "http-management-relative-path", Value: constants.KeycloakRelativePath},
			},
		},
	}, nil
}

func databaseSpec(p *reconcile.Pass, embedded reconcile.EmbeddedIdentity) (*keycloakv2alpha1.DatabaseSpec, error) {
	switch db := embedded.Database.(type) {
	case reconcile.ExternalDatabase:
		port, err := strconv.ParseInt(db.Port, 10, 64)
		if err != nil {
			return nil, operatorerrors.WithReason(
				operatorerrors.WrapPermanentConfig(fmt.Errorf("invalid oidc.embedded.database.port %q: %w", db.Port, err)),
				"InvalidDatabasePort")
		}
		return &keycloakv2alpha1.DatabaseSpec{
			Vendor:         constants.DBVendorPostgres,
			Host:           db.Host,
			Port:           port,
			Database:       db.Name,
			UsernameSecret: secretKeyReference(db.Username),
			PasswordSecret: secretKeyReference(db.Password),
		}, nil
	case reconcile.SelfManagedDatabase:
		target := infra.KeycloakDatabase(p)
		username, password := target.Credentials()
		return &keycloakv2alpha1.DatabaseSpec{
			Vendor:         constants.DBVendorPostgres,
			Host:           target.ServiceName,
			Port:           int64(constants.PortPostgres),
			Database:       target.DatabaseName,
			UsernameSecret: secretKeyReference(username),
			PasswordSecret: secretKeyReference(password),
		}, nil
	default:
		return nil, fmt.Errorf("unknown database mode %T", embedded.Database)
	}
}

func secretKeyReference(sel *corev1.SecretKeySelector) *keycloakv2alpha1.SecretKeyReference {
	if sel == nil {
		return nil
	}
	return &keycloakv2alpha1.SecretKeyReference{Name: sel.Name, Key: sel.Key}
}

// BuildTLSService returns the headless Service whose serving certificate the
// platform issues for Keycloak.
func BuildTLSService(p *reconcile.Pass) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:        p.Name(constants.SuffixKeycloakTLSService),
			Namespace:   p.Namespace(),
			Labels:      conditions.Kind{Role: conditions.RoleKeycloak, Variant: conditions.VariantTLS}.Labels(p.Trustify),
			Annotations: p.Capability.ServingCertAnnotations(p.Trustify, cluster.PurposeKeycloak),
		},
		Spec: corev1.ServiceSpec{
			ClusterIP: corev1.ClusterIPNone,
			Ports: []corev1.ServicePort{
				{
					Name:       constants.PortNameHTTP,
					Port:       constants.PortHTTP,
					TargetPort: intstr.FromInt32(constants.PortHTTP),
					Protocol:   corev1.ProtocolTCP,
				},
			},
		},
	}
}
