/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package controller

import (
	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/predicate"

	keycloakv2alpha1 "github.com/trustification/trustify-operator/api/keycloak/v2alpha1"
	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
)

// TrustifyPredicate filters Trustify events to only reconcile on meaningful
// changes. Status-only updates written by the controller itself are filtered
// out; everything else wakes the controller.
func TrustifyPredicate() predicate.Predicate {
	return predicate.Funcs{
		CreateFunc: func(e event.CreateEvent) bool {
			return true
		},
		DeleteFunc: func(e event.DeleteEvent) bool {
			return true
		},
		UpdateFunc: func(e event.UpdateEvent) bool {
			oldCR, ok := e.ObjectOld.(*trustifyv1alpha1.Trustify)
			if !ok {
				return true
			}
			newCR, ok := e.ObjectNew.(*trustifyv1alpha1.Trustify)
			if !ok {
				return true
			}

			// Generation changes indicate a spec change.
			if oldCR.Generation != newCR.Generation {
				return true
			}
			if !oldCR.DeletionTimestamp.Equal(newCR.DeletionTimestamp) {
				return true
			}
			if !equality.Semantic.DeepEqual(oldCR.Labels, newCR.Labels) {
				return true
			}
			if !equality.Semantic.DeepEqual(oldCR.Annotations, newCR.Annotations) {
				return true
			}

			// Filter out status-only updates
			return false
		},
		GenericFunc: func(e event.GenericEvent) bool {
			return true
		},
	}
}

// DeploymentProgressPredicate wakes the controller when an owned Deployment
// changes spec or moves towards (or away from) availability. Readiness and
// rollout state are derived from these fields.
func DeploymentProgressPredicate() predicate.Predicate {
	return predicate.Funcs{
		CreateFunc: func(e event.CreateEvent) bool {
			return true
		},
		DeleteFunc: func(e event.DeleteEvent) bool {
			return true
		},
		UpdateFunc: func(e event.UpdateEvent) bool {
			oldDep, ok := e.ObjectOld.(*appsv1.Deployment)
			if !ok {
				return true
			}
			newDep, ok := e.ObjectNew.(*appsv1.Deployment)
			if !ok {
				return true
			}

			return oldDep.Generation != newDep.Generation ||
				oldDep.Status.ObservedGeneration != newDep.Status.ObservedGeneration ||
				oldDep.Status.AvailableReplicas != newDep.Status.AvailableReplicas ||
				oldDep.Status.UpdatedReplicas != newDep.Status.UpdatedReplicas
		},
		GenericFunc: func(e event.GenericEvent) bool {
			return true
		},
	}
}

// KeycloakConditionsPredicate wakes the controller when a Keycloak or
// KeycloakRealmImport changes spec or reports different conditions.
func KeycloakConditionsPredicate() predicate.Predicate {
	return predicate.Funcs{
		CreateFunc: func(e event.CreateEvent) bool {
			return true
		},
		DeleteFunc: func(e event.DeleteEvent) bool {
			return true
		},
		UpdateFunc: func(e event.UpdateEvent) bool {
			if e.ObjectOld.GetGeneration() != e.ObjectNew.GetGeneration() {
				return true
			}
			switch newObj := e.ObjectNew.(type) {
			case *keycloakv2alpha1.Keycloak:
				oldObj, ok := e.ObjectOld.(*keycloakv2alpha1.Keycloak)
				return !ok || !equality.Semantic.DeepEqual(oldObj.Status.Conditions, newObj.Status.Conditions)
			case *keycloakv2alpha1.KeycloakRealmImport:
				oldObj, ok := e.ObjectOld.(*keycloakv2alpha1.KeycloakRealmImport)
				return !ok || !equality.Semantic.DeepEqual(oldObj.Status.Conditions, newObj.Status.Conditions)
			default:
				return true
			}
		},
		GenericFunc: func(e event.GenericEvent) bool {
			return true
		},
	}
}

// ResourceGenerationChangedPredicate is a generic predicate that filters
// update events to only trigger reconciliation when the Generation changes.
// Generation changes indicate that the Spec has been modified.
func ResourceGenerationChangedPredicate() predicate.Predicate {
	return predicate.Funcs{
		CreateFunc: func(e event.CreateEvent) bool {
			return true
		},
		DeleteFunc: func(e event.DeleteEvent) bool {
			return true
		},
		UpdateFunc: func(e event.UpdateEvent) bool {
			oldObj, ok := e.ObjectOld.(metav1.Object)
			if !ok {
				return true
			}
			newObj, ok := e.ObjectNew.(metav1.Object)
			if !ok {
				return true
			}

			// Only reconcile if Generation changed
			return oldObj.GetGeneration() != newObj.GetGeneration()
		},
		GenericFunc: func(e event.GenericEvent) bool {
			return true
		},
	}
}
