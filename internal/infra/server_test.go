package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/cluster"
	"github.com/trustification/trustify-operator/internal/config"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

func TestServerDNSNames(t *testing.T) {
	p := newTestPass(trustifyv1alpha1.TrustifySpec{
		HostnameSpec: &trustifyv1alpha1.HostnameSpec{Hostname: "trustify.example.com"},
	})

	assert.Equal(t, []string{
		"demo-trustify-server-service",
		"demo-trustify-server-service.apps",
		"demo-trustify-server-service.apps.svc",
		"trustify.example.com",
	}, ServerDNSNames(p))
}

func TestBuildServerService_ServingCertAnnotations(t *testing.T) {
	cr := &trustifyv1alpha1.Trustify{ObjectMeta: metav1.ObjectMeta{Name: "demo", Namespace: "apps"}}
	openshift := cluster.NewOpenShift(fake.NewClientBuilder().Build(), "apps.example.com", "cluster.local")

	svc := BuildServerService(reconcile.NewPass(cr, openshift))
	assert.Equal(t, "demo-server-serving-cert", svc.Annotations["service.beta.openshift.io/serving-cert-secret-name"])

	cr.Spec.HTTPSpec = &trustifyv1alpha1.HTTPSpec{TLSSecret: "mine"}
	svc = BuildServerService(reconcile.NewPass(cr, openshift))
	assert.Empty(t, svc.Annotations)

	svc = BuildServerService(newTestPass(trustifyv1alpha1.TrustifySpec{}))
	assert.Empty(t, svc.Annotations)
}

func TestBuildServerPVC(t *testing.T) {
	p := newTestPass(trustifyv1alpha1.TrustifySpec{
		StorageSpec: &trustifyv1alpha1.StorageSpec{Filesystem: &trustifyv1alpha1.FilesystemStorageSpec{PVCSize: "25Gi"}},
	})

	pvc, err := BuildServerPVC(p, config.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "demo-trustify-server-pvc", pvc.Name)
	assert.True(t, resource.MustParse("25Gi").Equal(pvc.Spec.Resources.Requests[corev1.ResourceStorage]))
}

func TestBuildServerConfigMap(t *testing.T) {
	p := newTestPass(trustifyv1alpha1.TrustifySpec{})
	cm := BuildServerConfigMap(p, "authentication: {}\n")

	assert.Equal(t, "demo-trustify-server-configmap", cm.Name)
	assert.Equal(t, "authentication: {}\n", cm.Data["auth.yaml"])
}

func TestBuildServerDeployment(t *testing.T) {
	p := newTestPass(trustifyv1alpha1.TrustifySpec{
		ServerResourceLimits: &trustifyv1alpha1.ResourcesLimitSpec{MemoryLimit: "6Gi"},
	})
	surface, err := config.Compile(p)
	require.NoError(t, err)

	dep, err := BuildServerDeployment(p, config.DefaultSettings(), surface, "abc123")
	require.NoError(t, err)

	assert.Equal(t, "abc123", dep.Spec.Template.Annotations["trustify.org/config-revision"])
	container := dep.Spec.Template.Spec.Containers[0]
	assert.Equal(t, surface.EnvVars(), container.Env)
	assert.Equal(t, surface.VolumeMounts(), container.VolumeMounts)
	assert.Equal(t, surface.Volumes(), dep.Spec.Template.Spec.Volumes)
	assert.Equal(t, int32(9010), container.ReadinessProbe.HTTPGet.Port.IntVal)
	assert.True(t, resource.MustParse("6Gi").Equal(container.Resources.Limits[corev1.ResourceMemory]))
}

func TestBuildServerDeployment_InvalidResources(t *testing.T) {
	p := newTestPass(trustifyv1alpha1.TrustifySpec{
		ServerResourceLimits: &trustifyv1alpha1.ResourcesLimitSpec{CPULimit: "lots"},
	})
	surface, err := config.Compile(p)
	require.NoError(t, err)

	_, err = BuildServerDeployment(p, config.DefaultSettings(), surface, "abc123")
	assert.Error(t, err)
}

