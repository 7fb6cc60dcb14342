package trustify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/cluster"
	"github.com/trustification/trustify-operator/internal/constants"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
	"github.com/trustification/trustify-operator/internal/status"
)

func TestRequeueFor(t *testing.T) {
	t.Parallel()

	incomplete := &status.Aggregate{}
	incomplete.AddIncomplete("server/Deployment", "waiting")
	incomplete.AddError("ui/gateway/HTTPRoute", "GatewayRefMissing", errors.New("missing"))
	assert.Equal(t, constants.RequeueShort, requeueFor(incomplete).RequeueAfter)

	failed := &status.Aggregate{}
	failed.AddError("ui/gateway/HTTPRoute", "GatewayRefMissing", errors.New("missing"))
	assert.Zero(t, requeueFor(failed).RequeueAfter)

	converged := &status.Aggregate{}
	converged.AddNotReady("ui/Deployment", "no available replicas")
	after := requeueFor(converged).RequeueAfter
	assert.GreaterOrEqual(t, after, constants.RequeueSafetyNetBase)
	assert.Less(t, after, constants.RequeueSafetyNetBase+constants.RequeueSafetyNetJitter)
}

func TestTransientResult(t *testing.T) {
	t.Parallel()

	result, err := transientResult(operatorerrors.WrapTransientConnection(errors.New("dial tcp: connection refused")))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, result.RequeueAfter)

	conflict := operatorerrors.WrapTransientKubernetesAPI(errors.New("conflict"))
	result, err = transientResult(conflict)
	assert.ErrorIs(t, err, conflict)
	assert.Zero(t, result.RequeueAfter)
}

func TestReconcile_NotFound(t *testing.T) {
	t.Parallel()

	r := newReconciler(newFakeClientBuilder().Build())
	result, err := r.Reconcile(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Zero(t, result.RequeueAfter)
}

func TestReconcile_DeletingCreatesNothing(t *testing.T) {
	t.Parallel()

	cr := newTrustify(trustifyv1alpha1.TrustifySpec{})
	now := metav1.Now()
	cr.DeletionTimestamp = &now
	cr.Finalizers = []string{"test.trustify.org/hold"}
	c := newFakeClientBuilder(cr).Build()

	_, err := newReconciler(c).Reconcile(context.Background(), testRequest())
	require.NoError(t, err)

	var deployments appsv1.DeploymentList
	require.NoError(t, c.List(context.Background(), &deployments, client.InNamespace(testNamespace)))
	assert.Empty(t, deployments.Items)
}

func TestReconcile_TransientErrorAbortsPassWithoutStatus(t *testing.T) {
	t.Parallel()

	var created []string
	c := newFakeClientBuilder(newTrustify(trustifyv1alpha1.TrustifySpec{})).
		WithInterceptorFuncs(interceptor.Funcs{
			Create: func(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.CreateOption) error {
				if _, ok := obj.(*appsv1.Deployment); ok {
					return apierrors.NewConflict(schema.GroupResource{Group: "apps", Resource: "deployments"}, obj.GetName(), errors.New("stale"))
				}
				created = append(created, obj.GetName())
				return c.Create(ctx, obj, opts...)
			},
		}).
		Build()

	_, err := newReconciler(c).Reconcile(context.Background(), testRequest())
	require.Error(t, err)

	// Kinds before the failing Deployment were applied, none after it.
	assert.Contains(t, created, testName+constants.SuffixDBSecret)
	assert.Contains(t, created, testName+constants.SuffixDBPVC)
	assert.NotContains(t, created, testName+constants.SuffixDBService)

	cr := &trustifyv1alpha1.Trustify{}
	require.NoError(t, c.Get(context.Background(), types.NamespacedName{Namespace: testNamespace, Name: testName}, cr))
	assert.Empty(t, cr.Status.Conditions)
}

func TestReconcile_UnresolvableKeycloakHostname(t *testing.T) {
	t.Parallel()

	c := newFakeClientBuilder(newTrustify(trustifyv1alpha1.TrustifySpec{
		OIDCSpec: &trustifyv1alpha1.OIDCSpec{Enabled: true},
	})).Build()
	r := newReconciler(c)
	r.Capability = cluster.NewGeneric("")

	result, err := r.Reconcile(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Zero(t, result.RequeueAfter)

	cr := &trustifyv1alpha1.Trustify{}
	require.NoError(t, c.Get(context.Background(), types.NamespacedName{Namespace: testNamespace, Name: testName}, cr))
	hasErrors := status.Get(cr.Status.Conditions, string(trustifyv1alpha1.ConditionHasErrors))
	require.NotNil(t, hasErrors)
	assert.Equal(t, metav1.ConditionTrue, hasErrors.Status)
	assert.Equal(t, "HostnameUnresolved", hasErrors.Reason)

	// The database chain is independent of the identity provider.
	d := &appsv1.Deployment{}
	require.NoError(t, c.Get(context.Background(), types.NamespacedName{Namespace: testNamespace, Name: testName + constants.SuffixDBDeployment}, d))
}

func TestReconcile_StatusPatchedOnlyOnChange(t *testing.T) {
	t.Parallel()

	patches := 0
	c := newFakeClientBuilder(newTrustify(trustifyv1alpha1.TrustifySpec{})).
		WithInterceptorFuncs(interceptor.Funcs{
			SubResourcePatch: func(ctx context.Context, c client.Client, subResourceName string, obj client.Object, patch client.Patch, opts ...client.SubResourcePatchOption) error {
				patches++
				return c.SubResource(subResourceName).Patch(ctx, obj, patch, opts...)
			},
		}).
		Build()
	r := newReconciler(c)

	_, err := r.Reconcile(context.Background(), testRequest())
	require.NoError(t, err)
	_, err = r.Reconcile(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, patches)
}
