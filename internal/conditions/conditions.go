package conditions

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	keycloakv2alpha1 "github.com/trustification/trustify-operator/api/keycloak/v2alpha1"
	"github.com/trustification/trustify-operator/internal/constants"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

// Activation conditions decide whether a kind should exist at all this pass.

// DatabaseActive is true when the Trustify database is self-managed.
func DatabaseActive(p *reconcile.Pass) bool {
	_, ok := p.Database.(reconcile.SelfManagedDatabase)
	return ok
}

// DatabaseSecretActive is true when the self-managed database needs generated credentials.
func DatabaseSecretActive(p *reconcile.Pass) bool {
	db, ok := p.Database.(reconcile.SelfManagedDatabase)
	return ok && !db.HasExplicitCredentials()
}

// KeycloakActive is true when the identity mode is embedded.
func KeycloakActive(p *reconcile.Pass) bool {
	_, ok := p.EmbeddedIdentity()
	return ok
}

// KeycloakDatabaseActive is true when the embedded identity provider uses a self-managed database.
func KeycloakDatabaseActive(p *reconcile.Pass) bool {
	e, ok := p.EmbeddedIdentity()
	if !ok {
		return false
	}
	_, self := e.Database.(reconcile.SelfManagedDatabase)
	return self
}

// KeycloakDatabaseSecretActive is true when the Keycloak database needs generated credentials.
func KeycloakDatabaseSecretActive(p *reconcile.Pass) bool {
	e, ok := p.EmbeddedIdentity()
	if !ok {
		return false
	}
	db, self := e.Database.(reconcile.SelfManagedDatabase)
	return self && !db.HasExplicitCredentials()
}

// KeycloakTLSServiceActive is true when Keycloak is embedded and the platform issues serving certificates.
func KeycloakTLSServiceActive(p *reconcile.Pass) bool {
	return KeycloakActive(p) && p.Capability.CanAutoIssueTLS()
}

// ServerTLSSecretActive is true when the server needs a self-issued certificate.
func ServerTLSSecretActive(p *reconcile.Pass) bool {
	return p.SpecTLSSecret() == "" && !p.Capability.CanAutoIssueTLS()
}

// ServerPVCActive is true when the server stores documents on a volume.
func ServerPVCActive(p *reconcile.Pass) bool {
	_, ok := p.Storage.(reconcile.FilesystemStorage)
	return ok
}

// HTTPRouteActive is true when Gateway API exposure is requested.
func HTTPRouteActive(p *reconcile.Pass) bool {
	return p.Trustify.Spec.Gateway != nil && p.Trustify.Spec.Gateway.Enabled
}

// Reconcile preconditions gate whether a resolver runs this pass. A false
// precondition comes with a short explanation for status.

// KeycloakPrecondition requires the self-managed Keycloak database to be observed and,
// on platforms that issue certificates, a resolved TLS secret.
func KeycloakPrecondition(p *reconcile.Pass, observed *Observed) (bool, string) {
	if KeycloakDatabaseActive(p) {
		name := p.Name(constants.SuffixKeycloakDBDeployment)
		if _, ok := Lookup[*appsv1.Deployment](observed, name); !ok {
			return false, fmt.Sprintf("waiting for Deployment %s", name)
		}
	}
	if p.Capability.CanAutoIssueTLS() && (p.Keycloak == nil || p.Keycloak.TLSSecret == "") {
		return false, "waiting for the platform to issue the Keycloak serving certificate"
	}
	return true, ""
}

// RealmImportPrecondition requires the Keycloak instance to be observed. The import
// waits for Keycloak readiness on its own.
func RealmImportPrecondition(p *reconcile.Pass, observed *Observed) (bool, string) {
	name := p.Name(constants.SuffixKeycloak)
	if _, ok := Lookup[*keycloakv2alpha1.Keycloak](observed, name); !ok {
		return false, fmt.Sprintf("waiting for Keycloak %s", name)
	}
	return true, ""
}

// ServerDeploymentPrecondition requires a ready database when self-managed and, with an
// embedded identity provider, a Ready Keycloak and a Done realm import.
func ServerDeploymentPrecondition(p *reconcile.Pass, observed *Observed) (bool, string) {
	if DatabaseActive(p) {
		name := p.Name(constants.SuffixDBDeployment)
		d, ok := Lookup[*appsv1.Deployment](observed, name)
		if !ok || !DeploymentReady(d) {
			return false, fmt.Sprintf("waiting for database Deployment %s to become available", name)
		}
	}
	if KeycloakActive(p) {
		kcName := p.Name(constants.SuffixKeycloak)
		kc, ok := Lookup[*keycloakv2alpha1.Keycloak](observed, kcName)
		if !ok || !KeycloakReady(kc) {
			return false, fmt.Sprintf("waiting for Keycloak %s to become ready", kcName)
		}
		importName := p.Name(constants.SuffixKeycloakRealmImport)
		ri, ok := Lookup[*keycloakv2alpha1.KeycloakRealmImport](observed, importName)
		if !ok || !RealmImportDone(ri) {
			return false, fmt.Sprintf("waiting for KeycloakRealmImport %s to finish", importName)
		}
	}
	return true, ""
}

// Readiness postconditions are derived from an object's own status.

// DeploymentReady is true when at least one replica is available.
func DeploymentReady(d *appsv1.Deployment) bool {
	return d != nil && d.Status.AvailableReplicas >= 1
}

// DeploymentRolling is true while a Deployment has not finished rolling out.
func DeploymentRolling(d *appsv1.Deployment) bool {
	if d == nil {
		return false
	}
	if d.Status.ObservedGeneration < d.Generation {
		return true
	}
	replicas := int32(1)
	if d.Spec.Replicas != nil {
		replicas = *d.Spec.Replicas
	}
	return d.Status.UpdatedReplicas < replicas
}

// KeycloakReady is true when the instance reports Ready=True.
func KeycloakReady(kc *keycloakv2alpha1.Keycloak) bool {
	return kc != nil && keycloakv2alpha1.HasCondition(kc.Status.Conditions, keycloakv2alpha1.ConditionReady)
}

// RealmImportDone is true when the import reports Done=True.
func RealmImportDone(ri *keycloakv2alpha1.KeycloakRealmImport) bool {
	return ri != nil && keycloakv2alpha1.HasCondition(ri.Status.Conditions, keycloakv2alpha1.ConditionDone)
}

// Match is the outcome of IdentityMatcher.
type Match int

const (
	// MatchManaged is the one managed slot for the kind.
	MatchManaged Match = iota
	// MatchStale is an owned object of the kind with a different name.
	MatchStale
)

// IdentityMatcher decides whether an observed object is the managed slot for a kind.
// An object with the desired name that is not controlled by owner is foreign and
// reported as an invariant violation.
func IdentityMatcher(observed client.Object, owner metav1.Object, desiredName string) (Match, error) {
	if observed.GetName() != desiredName {
		return MatchStale, nil
	}
	ref := metav1.GetControllerOf(observed)
	if ref == nil || ref.UID != owner.GetUID() {
		controller := "none"
		if ref != nil {
			controller = ref.Kind + "/" + ref.Name
		}
		return MatchManaged, operatorerrors.WithReason(operatorerrors.WrapInvariantViolation(
			fmt.Errorf("%s/%s exists but is controlled by %s", observed.GetNamespace(), observed.GetName(), controller)),
			"ForeignObject")
	}
	return MatchManaged, nil
}
