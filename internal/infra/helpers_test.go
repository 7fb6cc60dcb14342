package infra

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/cluster"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

func newTestPass(spec trustifyv1alpha1.TrustifySpec) *reconcile.Pass {
	cr := &trustifyv1alpha1.Trustify{
		ObjectMeta: metav1.ObjectMeta{Name: "demo", Namespace: "apps"},
		Spec:       spec,
	}
	return reconcile.NewPass(cr, cluster.NewGeneric("cluster.local"))
}

func embeddedHandle() *reconcile.KeycloakHandle {
	return &reconcile.KeycloakHandle{
		Name:        "demo-keycloak",
		ServiceName: "demo-keycloak-service",
		HTTPEnabled: true,
		Hostname:    "https://trustify.example.com/auth",
		Realm:       "trustify",
		UIClientID:  "frontend",
	}
}
