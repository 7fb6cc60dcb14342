package trustify

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	keycloakv2alpha1 "github.com/trustification/trustify-operator/api/keycloak/v2alpha1"
	"github.com/trustification/trustify-operator/internal/certs"
	"github.com/trustification/trustify-operator/internal/cluster"
	"github.com/trustification/trustify-operator/internal/conditions"
	"github.com/trustification/trustify-operator/internal/config"
	"github.com/trustification/trustify-operator/internal/constants"
	"github.com/trustification/trustify-operator/internal/infra"
	"github.com/trustification/trustify-operator/internal/keycloak"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

// step is one managed-object kind in the fixed dependency order.
type step struct {
	kind conditions.Kind
	// suffix is appended to the Trustify name to form the managed object name.
	suffix string
	// list returns an empty list of the kind's object type, used for stale cleanup.
	list func() client.ObjectList

	active func(p *reconcile.Pass) bool
	// precondition is optional. A false result leaves the kind untouched this pass.
	precondition func(p *reconcile.Pass, observed *conditions.Observed) (bool, string)
	// identity marks kinds whose desired state depends on the identity mode. They are
	// left untouched while the identity spec is invalid.
	identity bool

	build      func(s *passState) (client.Object, error)
	createOnly bool
	// ensure replaces build and apply for kinds with their own write path.
	ensure func(ctx context.Context, s *passState) (client.Object, error)

	// ready is the readiness postcondition. Kinds without one are ready once applied.
	ready func(obj client.Object) (bool, string)
}

func always(*reconcile.Pass) bool { return true }

var (
	kindDBSecret     = conditions.Kind{Role: conditions.RoleDB, Object: "Secret"}
	kindDBPVC        = conditions.Kind{Role: conditions.RoleDB, Object: "PersistentVolumeClaim"}
	kindDBDeployment = conditions.Kind{Role: conditions.RoleDB, Object: "Deployment"}
	kindDBService    = conditions.Kind{Role: conditions.RoleDB, Object: "Service"}

	kindKeycloakDBSecret     = conditions.Kind{Role: conditions.RoleKeycloak, Variant: conditions.VariantDB, Object: "Secret"}
	kindKeycloakDBPVC        = conditions.Kind{Role: conditions.RoleKeycloak, Variant: conditions.VariantDB, Object: "PersistentVolumeClaim"}
	kindKeycloakDBDeployment = conditions.Kind{Role: conditions.RoleKeycloak, Variant: conditions.VariantDB, Object: "Deployment"}
	kindKeycloakDBService    = conditions.Kind{Role: conditions.RoleKeycloak, Variant: conditions.VariantDB, Object: "Service"}
	kindKeycloakTLSService   = conditions.Kind{Role: conditions.RoleKeycloak, Variant: conditions.VariantTLS, Object: "Service"}
	kindKeycloak             = conditions.Kind{Role: conditions.RoleKeycloak, Object: "Keycloak"}
	kindRealmImport          = conditions.Kind{Role: conditions.RoleKeycloak, Object: "KeycloakRealmImport"}

	kindServerTLSSecret  = conditions.Kind{Role: conditions.RoleServer, Variant: conditions.VariantTLS, Object: "Secret"}
	kindServerConfigMap  = conditions.Kind{Role: conditions.RoleServer, Object: "ConfigMap"}
	kindServerPVC        = conditions.Kind{Role: conditions.RoleServer, Object: "PersistentVolumeClaim"}
	kindServerService    = conditions.Kind{Role: conditions.RoleServer, Object: "Service"}
	kindServerDeployment = conditions.Kind{Role: conditions.RoleServer, Object: "Deployment"}

	kindUIService    = conditions.Kind{Role: conditions.RoleUI, Object: "Service"}
	kindUIDeployment = conditions.Kind{Role: conditions.RoleUI, Object: "Deployment"}
	kindIngress      = conditions.Kind{Role: conditions.RoleUI, Variant: conditions.VariantHTTPS, Object: "Ingress"}
	kindHTTPRoute    = conditions.Kind{Role: conditions.RoleUI, Variant: conditions.VariantGateway, Object: "HTTPRoute"}
)

func secretList() client.ObjectList     { return &corev1.SecretList{} }
func pvcList() client.ObjectList        { return &corev1.PersistentVolumeClaimList{} }
func deploymentList() client.ObjectList { return &appsv1.DeploymentList{} }
func serviceList() client.ObjectList    { return &corev1.ServiceList{} }

// steps lists every managed kind. Database first, then the identity provider and
// its realm import, then the server. UI and exposure do not depend on that chain.
var steps = []step{
	{
		kind: kindDBSecret, suffix: constants.SuffixDBSecret, list: secretList,
		active: conditions.DatabaseSecretActive,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildDatabaseSecret(s.pass, infra.TrustifyDatabase(s.pass))
		},
		createOnly: true,
	},
	{
		kind: kindDBPVC, suffix: constants.SuffixDBPVC, list: pvcList,
		active: conditions.DatabaseActive,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildDatabasePVC(s.pass, infra.TrustifyDatabase(s.pass), s.settings)
		},
	},
	{
		kind: kindDBDeployment, suffix: constants.SuffixDBDeployment, list: deploymentList,
		active: conditions.DatabaseActive,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildDatabaseDeployment(s.pass, infra.TrustifyDatabase(s.pass), s.settings)
		},
		ready: deploymentReady,
	},
	{
		kind: kindDBService, suffix: constants.SuffixDBService, list: serviceList,
		active: conditions.DatabaseActive,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildDatabaseService(s.pass, infra.TrustifyDatabase(s.pass)), nil
		},
	},

	{
		kind: kindKeycloakDBSecret, suffix: constants.SuffixKeycloakDBSecret, list: secretList,
		active: conditions.KeycloakDatabaseSecretActive, identity: true,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildDatabaseSecret(s.pass, infra.KeycloakDatabase(s.pass))
		},
		createOnly: true,
	},
	{
		kind: kindKeycloakDBPVC, suffix: constants.SuffixKeycloakDBPVC, list: pvcList,
		active: conditions.KeycloakDatabaseActive, identity: true,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildDatabasePVC(s.pass, infra.KeycloakDatabase(s.pass), s.settings)
		},
	},
	{
		kind: kindKeycloakDBDeployment, suffix: constants.SuffixKeycloakDBDeployment, list: deploymentList,
		active: conditions.KeycloakDatabaseActive, identity: true,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildDatabaseDeployment(s.pass, infra.KeycloakDatabase(s.pass), s.settings)
		},
		ready: deploymentReady,
	},
	{
		kind: kindKeycloakDBService, suffix: constants.SuffixKeycloakDBService, list: serviceList,
		active: conditions.KeycloakDatabaseActive, identity: true,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildDatabaseService(s.pass, infra.KeycloakDatabase(s.pass)), nil
		},
	},
	{
		kind: kindKeycloakTLSService, suffix: constants.SuffixKeycloakTLSService, list: serviceList,
		active: conditions.KeycloakTLSServiceActive, identity: true,
		build: func(s *passState) (client.Object, error) {
			return keycloak.BuildTLSService(s.pass), nil
		},
	},
	{
		kind: kindKeycloak, suffix: constants.SuffixKeycloak,
		list:         func() client.ObjectList { return &keycloakv2alpha1.KeycloakList{} },
		active:       conditions.KeycloakActive,
		identity:     true,
		precondition: conditions.KeycloakPrecondition,
		build: func(s *passState) (client.Object, error) {
			return keycloak.BuildKeycloak(s.pass, s.settings)
		},
		ready: func(obj client.Object) (bool, string) {
			kc, _ := obj.(*keycloakv2alpha1.Keycloak)
			if !conditions.KeycloakReady(kc) {
				return false, "Keycloak is not Ready"
			}
			return true, ""
		},
	},
	{
		kind: kindRealmImport, suffix: constants.SuffixKeycloakRealmImport,
		list:         func() client.ObjectList { return &keycloakv2alpha1.KeycloakRealmImportList{} },
		active:       conditions.KeycloakActive,
		identity:     true,
		precondition: conditions.RealmImportPrecondition,
		build: func(s *passState) (client.Object, error) {
			return keycloak.BuildRealmImport(s.pass)
		},
		createOnly: true,
		ready: func(obj client.Object) (bool, string) {
			ri, _ := obj.(*keycloakv2alpha1.KeycloakRealmImport)
			if !conditions.RealmImportDone(ri) {
				return false, "realm import is not Done"
			}
			return true, ""
		},
	},

	{
		kind: kindServerTLSSecret, suffix: constants.SuffixServerTLS, list: secretList,
		active: conditions.ServerTLSSecretActive,
		ensure: ensureServerTLSSecret,
	},
	{
		kind: kindServerConfigMap, suffix: constants.SuffixServerConfigMap,
		list:     func() client.ObjectList { return &corev1.ConfigMapList{} },
		active:   always,
		identity: true,
		build: func(s *passState) (client.Object, error) {
			doc, err := config.RenderAuthDocument(s.pass)
			if err != nil {
				return nil, err
			}
			return infra.BuildServerConfigMap(s.pass, doc), nil
		},
	},
	{
		kind: kindServerPVC, suffix: constants.SuffixServerPVC, list: pvcList,
		active: conditions.ServerPVCActive,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildServerPVC(s.pass, s.settings)
		},
	},
	{
		kind: kindServerService, suffix: constants.SuffixServerService, list: serviceList,
		active: always,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildServerService(s.pass), nil
		},
	},
	{
		kind: kindServerDeployment, suffix: constants.SuffixServerDeployment, list: deploymentList,
		active:       always,
		identity:     true,
		precondition: conditions.ServerDeploymentPrecondition,
		build:        buildServerDeployment,
		ready:        deploymentReady,
	},

	{
		kind: kindUIService, suffix: constants.SuffixUIService, list: serviceList,
		active: always,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildUIService(s.pass), nil
		},
	},
	{
		kind: kindUIDeployment, suffix: constants.SuffixUIDeployment, list: deploymentList,
		active: always,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildUIDeployment(s.pass, s.settings)
		},
		ready: deploymentReady,
	},
	{
		kind: kindIngress, suffix: constants.SuffixIngress,
		list:   func() client.ObjectList { return &networkingv1.IngressList{} },
		active: always,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildIngress(s.pass), nil
		},
	},
	{
		kind: kindHTTPRoute, suffix: constants.SuffixHTTPRoute,
		list:   func() client.ObjectList { return &gatewayv1.HTTPRouteList{} },
		active: conditions.HTTPRouteActive,
		build: func(s *passState) (client.Object, error) {
			return infra.BuildHTTPRoute(s.pass)
		},
	},
}

func deploymentReady(obj client.Object) (bool, string) {
	d, _ := obj.(*appsv1.Deployment)
	if !conditions.DeploymentReady(d) {
		return false, "no available replicas"
	}
	return true, ""
}

// buildServerDeployment compiles the configuration surface and stamps its revision,
// together with the auth document, on the pod template.
func buildServerDeployment(s *passState) (client.Object, error) {
	surface, err := config.Compile(s.pass)
	if err != nil {
		return nil, err
	}
	doc, err := config.RenderAuthDocument(s.pass)
	if err != nil {
		return nil, err
	}
	rev, err := surface.Revision(doc)
	if err != nil {
		return nil, err
	}
	return infra.BuildServerDeployment(s.pass, s.settings, surface, rev)
}

// ensureServerTLSSecret issues the server certificate once and points the pass at it.
func ensureServerTLSSecret(ctx context.Context, s *passState) (client.Object, error) {
	secret, err := s.issuer.Ensure(ctx, s.logger, s.pass.Trustify, certs.Request{
		Kind:       kindServerTLSSecret,
		SecretName: s.pass.Name(constants.SuffixServerTLS),
		Purpose:    cluster.PurposeServer,
		DNSNames:   infra.ServerDNSNames(s.pass),
	})
	if err != nil {
		return nil, err
	}
	s.pass.ServerTLSSecret = secret.Name
	return secret, nil
}
