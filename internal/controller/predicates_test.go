package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/event"

	keycloakv2alpha1 "github.com/trustification/trustify-operator/api/keycloak/v2alpha1"
	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
)

func TestTrustifyPredicate_FiltersStatusOnlyUpdates(t *testing.T) {
	p := TrustifyPredicate()
	oldCR := &trustifyv1alpha1.Trustify{ObjectMeta: metav1.ObjectMeta{Name: "demo", Generation: 1}}

	statusOnly := oldCR.DeepCopy()
	statusOnly.Status.Conditions = []metav1.Condition{{Type: "Ready", Status: metav1.ConditionTrue}}
	assert.False(t, p.Update(event.UpdateEvent{ObjectOld: oldCR, ObjectNew: statusOnly}))

	specChange := oldCR.DeepCopy()
	specChange.Generation = 2
	assert.True(t, p.Update(event.UpdateEvent{ObjectOld: oldCR, ObjectNew: specChange}))

	labelChange := oldCR.DeepCopy()
	labelChange.Labels = map[string]string{"team": "a"}
	assert.True(t, p.Update(event.UpdateEvent{ObjectOld: oldCR, ObjectNew: labelChange}))

	assert.True(t, p.Create(event.CreateEvent{Object: oldCR}))
	assert.True(t, p.Delete(event.DeleteEvent{Object: oldCR}))
}

func TestDeploymentProgressPredicate(t *testing.T) {
	p := DeploymentProgressPredicate()
	oldDep := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: "d", Generation: 1}}

	annotated := oldDep.DeepCopy()
	annotated.Annotations = map[string]string{"deployment.kubernetes.io/revision": "2"}
	assert.False(t, p.Update(event.UpdateEvent{ObjectOld: oldDep, ObjectNew: annotated}))

	available := oldDep.DeepCopy()
	available.Status.AvailableReplicas = 1
	assert.True(t, p.Update(event.UpdateEvent{ObjectOld: oldDep, ObjectNew: available}))
}

func TestKeycloakConditionsPredicate(t *testing.T) {
	p := KeycloakConditionsPredicate()
	oldKC := &keycloakv2alpha1.Keycloak{ObjectMeta: metav1.ObjectMeta{Name: "kc", Generation: 1}}

	same := oldKC.DeepCopy()
	same.Status.Instances = 1
	assert.False(t, p.Update(event.UpdateEvent{ObjectOld: oldKC, ObjectNew: same}))

	ready := oldKC.DeepCopy()
	ready.Status.Conditions = []keycloakv2alpha1.StatusCondition{{Type: "Ready", Status: "True"}}
	assert.True(t, p.Update(event.UpdateEvent{ObjectOld: oldKC, ObjectNew: ready}))

	oldImport := &keycloakv2alpha1.KeycloakRealmImport{ObjectMeta: metav1.ObjectMeta{Name: "ri", Generation: 1}}
	done := oldImport.DeepCopy()
	done.Status.Conditions = []keycloakv2alpha1.StatusCondition{{Type: "Done", Status: "True"}}
	assert.True(t, p.Update(event.UpdateEvent{ObjectOld: oldImport, ObjectNew: done}))
}
