package kube

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/conditions"
	"github.com/trustification/trustify-operator/internal/constants"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
)

var testScheme = func() *runtime.Scheme {
	scheme := runtime.NewScheme()
	_ = clientgoscheme.AddToScheme(scheme)
	_ = trustifyv1alpha1.AddToScheme(scheme)
	return scheme
}()

var uiService = conditions.Kind{Role: conditions.RoleUI, Object: "Service"}

func newTestClient(t *testing.T, objs ...client.Object) client.Client {
	t.Helper()
	builder := fake.NewClientBuilder().WithScheme(testScheme)
	if len(objs) > 0 {
		builder = builder.WithObjects(objs...)
	}
	return builder.Build()
}

func newOwner() *trustifyv1alpha1.Trustify {
	return &trustifyv1alpha1.Trustify{
		TypeMeta:   metav1.TypeMeta{APIVersion: "org.trustify/v1alpha1", Kind: "Trustify"},
		ObjectMeta: metav1.ObjectMeta{Name: "demo", Namespace: "apps", UID: types.UID("owner-uid")},
	}
}

func desiredService(port int32) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "demo-trustify-ui-service", Namespace: "apps"},
		Spec: corev1.ServiceSpec{
			Ports: []corev1.ServicePort{{Name: "http", Port: port}},
		},
	}
}

func ownedBy(owner *trustifyv1alpha1.Trustify) []metav1.OwnerReference {
	return []metav1.OwnerReference{{
		APIVersion: "org.trustify/v1alpha1", Kind: "Trustify", Name: owner.Name, UID: owner.UID, Controller: ptr.To(true),
	}}
}

func TestApply_CreateThenNoOpThenUpdate(t *testing.T) {
	ctx := context.Background()
	owner := newOwner()
	c := newTestClient(t)
	var ops []Operation
	a := NewApplier(c, testScheme, func(_ conditions.Kind, op Operation) { ops = append(ops, op) })

	_, op, err := a.Apply(ctx, logr.Discard(), owner, uiService, desiredService(8080), ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, OperationCreate, op)

	stored := &corev1.Service{}
	require.NoError(t, c.Get(ctx, types.NamespacedName{Namespace: "apps", Name: "demo-trustify-ui-service"}, stored))
	assert.Equal(t, "ui", stored.Labels[constants.LabelComponent])
	assert.NotEmpty(t, stored.Annotations[constants.AnnotationDesiredRevision])
	require.NotNil(t, metav1.GetControllerOf(stored))
	assert.Equal(t, owner.UID, metav1.GetControllerOf(stored).UID)
	firstVersion := stored.ResourceVersion

	_, op, err = a.Apply(ctx, logr.Discard(), owner, uiService, desiredService(8080), ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, OperationUnchanged, op)

	require.NoError(t, c.Get(ctx, client.ObjectKeyFromObject(stored), stored))
	assert.Equal(t, firstVersion, stored.ResourceVersion, "no-op apply must not write")

	_, op, err = a.Apply(ctx, logr.Discard(), owner, uiService, desiredService(9090), ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, OperationUpdate, op)

	require.NoError(t, c.Get(ctx, client.ObjectKeyFromObject(stored), stored))
	assert.Equal(t, int32(9090), stored.Spec.Ports[0].Port)
	assert.Equal(t, []Operation{OperationCreate, OperationUpdate}, ops)
}

func TestApply_PreservesClusterIPAndForeignAnnotations(t *testing.T) {
	ctx := context.Background()
	owner := newOwner()
	existing := desiredService(8080)
	existing.OwnerReferences = ownedBy(owner)
	existing.Spec.ClusterIP = "10.0.0.12"
	existing.Annotations = map[string]string{"example.com/note": "keep", constants.AnnotationDesiredRevision: "stale"}
	c := newTestClient(t, existing)
	a := NewApplier(c, testScheme, nil)

	_, op, err := a.Apply(ctx, logr.Discard(), owner, uiService, desiredService(9090), ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, OperationUpdate, op)

	stored := &corev1.Service{}
	require.NoError(t, c.Get(ctx, client.ObjectKeyFromObject(existing), stored))
	assert.Equal(t, "10.0.0.12", stored.Spec.ClusterIP)
	assert.Equal(t, "keep", stored.Annotations["example.com/note"])
	assert.NotEqual(t, "stale", stored.Annotations[constants.AnnotationDesiredRevision])
}

func TestApply_CreateOnlyNeverUpdates(t *testing.T) {
	ctx := context.Background()
	owner := newOwner()
	existing := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "demo-trustify-db-secret", Namespace: "apps", OwnerReferences: ownedBy(owner)},
		Data:       map[string][]byte{"password": []byte("original")},
	}
	c := newTestClient(t, existing)
	a := NewApplier(c, testScheme, nil)
	kind := conditions.Kind{Role: conditions.RoleDB, Object: "Secret"}

	desired := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "demo-trustify-db-secret", Namespace: "apps"},
		Data:       map[string][]byte{"password": []byte("regenerated")},
	}
	_, op, err := a.Apply(ctx, logr.Discard(), owner, kind, desired, ApplyOptions{CreateOnly: true})
	require.NoError(t, err)
	assert.Equal(t, OperationUnchanged, op)

	stored := &corev1.Secret{}
	require.NoError(t, c.Get(ctx, client.ObjectKeyFromObject(existing), stored))
	assert.Equal(t, "original", string(stored.Data["password"]))
}

func TestApply_ForeignObjectIsInvariantViolation(t *testing.T) {
	ctx := context.Background()
	owner := newOwner()
	foreign := desiredService(8080)
	c := newTestClient(t, foreign)
	a := NewApplier(c, testScheme, nil)

	_, _, err := a.Apply(ctx, logr.Discard(), owner, uiService, desiredService(8080), ApplyOptions{})
	require.Error(t, err)
	assert.True(t, operatorerrors.IsInvariantViolation(err))
}

func TestApply_PVCOnlyGrows(t *testing.T) {
	ctx := context.Background()
	owner := newOwner()
	kind := conditions.Kind{Role: conditions.RoleServer, Object: "PersistentVolumeClaim"}
	pvc := func(size string) *corev1.PersistentVolumeClaim {
		return &corev1.PersistentVolumeClaim{
			ObjectMeta: metav1.ObjectMeta{Name: "demo-trustify-server-pvc", Namespace: "apps"},
			Spec: corev1.PersistentVolumeClaimSpec{
				AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
				Resources: corev1.VolumeResourceRequirements{
					Requests: corev1.ResourceList{corev1.ResourceStorage: resource.MustParse(size)},
				},
			},
		}
	}
	existing := pvc("10Gi")
	existing.OwnerReferences = ownedBy(owner)
	existing.Spec.StorageClassName = ptr.To("standard")
	c := newTestClient(t, existing)
	a := NewApplier(c, testScheme, nil)

	_, _, err := a.Apply(ctx, logr.Discard(), owner, kind, pvc("5Gi"), ApplyOptions{})
	require.NoError(t, err)
	stored := &corev1.PersistentVolumeClaim{}
	require.NoError(t, c.Get(ctx, client.ObjectKeyFromObject(existing), stored))
	assert.True(t, stored.Spec.Resources.Requests.Storage().Equal(resource.MustParse("10Gi")))
	assert.Equal(t, ptr.To("standard"), stored.Spec.StorageClassName)

	_, _, err = a.Apply(ctx, logr.Discard(), owner, kind, pvc("20Gi"), ApplyOptions{})
	require.NoError(t, err)
	require.NoError(t, c.Get(ctx, client.ObjectKeyFromObject(existing), stored))
	assert.True(t, stored.Spec.Resources.Requests.Storage().Equal(resource.MustParse("20Gi")))
}

func TestApply_RevertsOutOfBandEdits(t *testing.T) {
	ctx := context.Background()
	owner := newOwner()
	c := newTestClient(t)
	a := NewApplier(c, testScheme, nil)

	_, _, err := a.Apply(ctx, logr.Discard(), owner, uiService, desiredService(8080), ApplyOptions{})
	require.NoError(t, err)

	stored := &corev1.Service{}
	require.NoError(t, c.Get(ctx, types.NamespacedName{Namespace: "apps", Name: "demo-trustify-ui-service"}, stored))
	stored.Spec.Ports[0].Port = 1234
	stored.Labels[constants.LabelComponent] = "hijacked"
	require.NoError(t, c.Update(ctx, stored))

	_, op, err := a.Apply(ctx, logr.Discard(), owner, uiService, desiredService(8080), ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, OperationUpdate, op)

	require.NoError(t, c.Get(ctx, client.ObjectKeyFromObject(stored), stored))
	assert.Equal(t, int32(8080), stored.Spec.Ports[0].Port)
	assert.Equal(t, "ui", stored.Labels[constants.LabelComponent])
}

func TestApply_IgnoresServerAssignedFields(t *testing.T) {
	ctx := context.Background()
	owner := newOwner()
	c := newTestClient(t)
	a := NewApplier(c, testScheme, nil)

	_, _, err := a.Apply(ctx, logr.Discard(), owner, uiService, desiredService(8080), ApplyOptions{})
	require.NoError(t, err)

	stored := &corev1.Service{}
	require.NoError(t, c.Get(ctx, types.NamespacedName{Namespace: "apps", Name: "demo-trustify-ui-service"}, stored))
	stored.Spec.ClusterIP = "10.0.0.7"
	stored.Spec.SessionAffinity = corev1.ServiceAffinityNone
	stored.Spec.Ports[0].Protocol = corev1.ProtocolTCP
	stored.Labels["example.com/team"] = "platform"
	require.NoError(t, c.Update(ctx, stored))
	version := stored.ResourceVersion

	_, op, err := a.Apply(ctx, logr.Discard(), owner, uiService, desiredService(8080), ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, OperationUnchanged, op)

	require.NoError(t, c.Get(ctx, client.ObjectKeyFromObject(stored), stored))
	assert.Equal(t, version, stored.ResourceVersion)
}

func TestApply_RevertsConfigMapData(t *testing.T) {
	ctx := context.Background()
	owner := newOwner()
	kind := conditions.Kind{Role: conditions.RoleServer, Object: "ConfigMap"}
	desired := func() *corev1.ConfigMap {
		return &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: "demo-trustify-server-configmap", Namespace: "apps"},
			Data:       map[string]string{"auth.yaml": "authentication: {}\n"},
		}
	}
	c := newTestClient(t)
	a := NewApplier(c, testScheme, nil)

	_, _, err := a.Apply(ctx, logr.Discard(), owner, kind, desired(), ApplyOptions{})
	require.NoError(t, err)

	stored := &corev1.ConfigMap{}
	require.NoError(t, c.Get(ctx, client.ObjectKeyFromObject(desired()), stored))
	stored.Data["extra"] = "value"
	require.NoError(t, c.Update(ctx, stored))

	_, op, err := a.Apply(ctx, logr.Discard(), owner, kind, desired(), ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, OperationUpdate, op)

	require.NoError(t, c.Get(ctx, client.ObjectKeyFromObject(stored), stored))
	assert.Equal(t, map[string]string{"auth.yaml": "authentication: {}\n"}, stored.Data)
}

func TestDeleteStale(t *testing.T) {
	ctx := context.Background()
	owner := newOwner()
	labelled := func(name string, variant string, controlled bool) *corev1.Service {
		svc := &corev1.Service{ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "apps",
			Labels: map[string]string{
				constants.LabelAppName:      "demo",
				constants.LabelAppManagedBy: constants.LabelValueManagedBy,
				constants.LabelComponent:    "ui",
			},
		}}
		if variant != "" {
			svc.Labels[constants.LabelComponentVariant] = variant
		}
		if controlled {
			svc.OwnerReferences = ownedBy(owner)
		}
		return svc
	}

	current := labelled("demo-trustify-ui-service", "", true)
	stale := labelled("old-ui-service", "", true)
	otherVariant := labelled("demo-ui-gateway", "gateway", true)
	unowned := labelled("copied-ui-service", "", false)
	c := newTestClient(t, current, stale, otherVariant, unowned)
	a := NewApplier(c, testScheme, nil)

	require.NoError(t, a.DeleteStale(ctx, logr.Discard(), owner, uiService, &corev1.ServiceList{}, "demo-trustify-ui-service"))

	assert.NoError(t, c.Get(ctx, client.ObjectKeyFromObject(current), &corev1.Service{}))
	assert.True(t, apierrors.IsNotFound(c.Get(ctx, client.ObjectKeyFromObject(stale), &corev1.Service{})))
	assert.NoError(t, c.Get(ctx, client.ObjectKeyFromObject(otherVariant), &corev1.Service{}), "variant objects belong to another slot")
	assert.NoError(t, c.Get(ctx, client.ObjectKeyFromObject(unowned), &corev1.Service{}))
}

func TestSecretExists(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, &corev1.Secret{ObjectMeta: metav1.ObjectMeta{Name: "tls", Namespace: "apps"}})

	ok, err := SecretExists(ctx, c, "apps", "tls")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = SecretExists(ctx, c, "apps", "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = SecretExists(ctx, c, "apps", "")
	require.NoError(t, err)
	assert.False(t, ok)
}
