package cluster

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/constants"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
)

// Platform names accepted by --platform.
const (
	PlatformAuto       = "auto"
	PlatformKubernetes = "kubernetes"
	PlatformOpenShift  = "openshift"
)

// TLS purposes used to partition platform issued secret names.
const (
	PurposeServer   = "server"
	PurposeKeycloak = "keycloak"
)

// Capability abstracts what the cluster can provide on its own. Resolvers receive
// a Capability and never branch on the platform name.
type Capability interface {
	// Name is the platform name, used for logging only.
	Name() string
	// AutoIngressHost returns the hostname the platform assigns to the Trustify ingress.
	AutoIngressHost(cr *trustifyv1alpha1.Trustify) (string, bool)
	// CanAutoIssueTLS reports whether the platform issues serving certificates for Services.
	CanAutoIssueTLS() bool
	// AutoTLSSecretName is the deterministic secret name the platform issues for purpose.
	AutoTLSSecretName(cr *trustifyv1alpha1.Trustify, purpose string) (string, bool)
	// AutoTLSSecret returns the platform issued secret for purpose if it exists.
	AutoTLSSecret(ctx context.Context, cr *trustifyv1alpha1.Trustify, purpose string) (string, bool, error)
	// ServingCertAnnotations are set on a Service to request a certificate for purpose.
	ServingCertAnnotations(cr *trustifyv1alpha1.Trustify, purpose string) map[string]string
	// InternalClusterHost is the in-cluster DNS name of the identity provider service.
	InternalClusterHost(cr *trustifyv1alpha1.Trustify) (string, bool)
}

type base struct {
	clusterDomain string
}

func (b base) InternalClusterHost(cr *trustifyv1alpha1.Trustify) (string, bool) {
	if b.clusterDomain == "" {
		return "", false
	}
	return fmt.Sprintf("%s%s.%s.svc.%s", cr.Name, constants.SuffixKeycloakService, cr.Namespace, b.clusterDomain), true
}

// Generic is a plain Kubernetes cluster without hostname or certificate issuance.
type Generic struct {
	base
}

// NewGeneric returns the Generic capability.
func NewGeneric(clusterDomain string) *Generic {
	return &Generic{base: base{clusterDomain: clusterDomain}}
}

func (g *Generic) Name() string { return PlatformKubernetes }

func (g *Generic) AutoIngressHost(*trustifyv1alpha1.Trustify) (string, bool) { return "", false }

func (g *Generic) CanAutoIssueTLS() bool { return false }

func (g *Generic) AutoTLSSecretName(*trustifyv1alpha1.Trustify, string) (string, bool) {
	return "", false
}

func (g *Generic) AutoTLSSecret(context.Context, *trustifyv1alpha1.Trustify, string) (string, bool, error) {
	return "", false, nil
}

func (g *Generic) ServingCertAnnotations(*trustifyv1alpha1.Trustify, string) map[string]string {
	return nil
}

// OpenShift issues route hostnames under the cluster ingress domain and serving
// certificates through the service CA operator.
type OpenShift struct {
	base
	ingressDomain string
	reader        client.Reader
}

// NewOpenShift returns the OpenShift capability. reader is used for read-only
// existence checks of issued secrets.
func NewOpenShift(reader client.Reader, ingressDomain, clusterDomain string) *OpenShift {
	return &OpenShift{
		base:          base{clusterDomain: clusterDomain},
		ingressDomain: ingressDomain,
		reader:        reader,
	}
}

func (o *OpenShift) Name() string { return PlatformOpenShift }

func (o *OpenShift) AutoIngressHost(cr *trustifyv1alpha1.Trustify) (string, bool) {
	if o.ingressDomain == "" {
		return "", false
	}
	return fmt.Sprintf("%s-%s.%s", cr.Name, cr.Namespace, o.ingressDomain), true
}

func (o *OpenShift) CanAutoIssueTLS() bool { return true }

func (o *OpenShift) AutoTLSSecretName(cr *trustifyv1alpha1.Trustify, purpose string) (string, bool) {
	return cr.Name + "-" + purpose + constants.SuffixServingCert, true
}

func (o *OpenShift) AutoTLSSecret(ctx context.Context, cr *trustifyv1alpha1.Trustify, purpose string) (string, bool, error) {
	name, _ := o.AutoTLSSecretName(cr, purpose)
	secret := &corev1.Secret{}
	err := o.reader.Get(ctx, types.NamespacedName{Namespace: cr.Namespace, Name: name}, secret)
	if apierrors.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, operatorerrors.WrapTransientKubernetesAPI(fmt.Errorf("failed to get serving certificate secret %s/%s: %w", cr.Namespace, name, err))
	}
	return name, true, nil
}

func (o *OpenShift) ServingCertAnnotations(cr *trustifyv1alpha1.Trustify, purpose string) map[string]string {
	name, _ := o.AutoTLSSecretName(cr, purpose)
	return map[string]string{constants.AnnotationServingCertSecretName: name}
}
