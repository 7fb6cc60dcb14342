package trustify

import (
	"golang.org/x/time/rate"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/client-go/util/workqueue"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	keycloakv2alpha1 "github.com/trustification/trustify-operator/api/keycloak/v2alpha1"
	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/constants"
	controllerutil "github.com/trustification/trustify-operator/internal/controller"
)

// SetupWithManager registers the Trustify controller. Every managed kind is watched
// through Owns so a change to any dependent triggers a new pass. The identity provider
// and Gateway API kinds are only watched when their CRDs are installed.
func (r *TrustifyReconciler) SetupWithManager(mgr ctrl.Manager) error {
	maxConcurrent := r.MaxConcurrentReconciles
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	b := ctrl.NewControllerManagedBy(mgr).
		For(&trustifyv1alpha1.Trustify{}, builder.WithPredicates(controllerutil.TrustifyPredicate())).
		Owns(&appsv1.Deployment{}, builder.WithPredicates(controllerutil.DeploymentProgressPredicate())).
		Owns(&corev1.Service{}).
		Owns(&corev1.Secret{}).
		Owns(&corev1.ConfigMap{}).
		Owns(&corev1.PersistentVolumeClaim{}).
		Owns(&networkingv1.Ingress{})

	if r.KeycloakInstalled {
		b = b.
			Owns(&keycloakv2alpha1.Keycloak{}, builder.WithPredicates(controllerutil.KeycloakConditionsPredicate())).
			Owns(&keycloakv2alpha1.KeycloakRealmImport{}, builder.WithPredicates(controllerutil.KeycloakConditionsPredicate()))
	}
	if r.GatewayInstalled {
		b = b.Owns(&gatewayv1.HTTPRoute{}, builder.WithPredicates(controllerutil.ResourceGenerationChangedPredicate()))
	}

	return b.
		WithOptions(controller.Options{
			MaxConcurrentReconciles: maxConcurrent,
			RateLimiter: workqueue.NewTypedMaxOfRateLimiter(
				workqueue.NewTypedItemExponentialFailureRateLimiter[ctrl.Request](constants.BackoffBase, constants.BackoffMax),
				&workqueue.TypedBucketRateLimiter[ctrl.Request]{Limiter: rate.NewLimiter(rate.Limit(10), 100)},
			),
		}).
		Named(constants.ControllerNameTrustify).
		Complete(r)
}
