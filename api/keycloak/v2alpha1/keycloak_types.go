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

package v2alpha1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Condition types reported by the Keycloak operator.
const (
	ConditionReady         = "Ready"
	ConditionHasErrors     = "HasErrors"
	ConditionRollingUpdate = "RollingUpdate"
	ConditionDone          = "Done"
	ConditionStarted       = "Started"

	ConditionStatusTrue  = "True"
	ConditionStatusFalse = "False"
)

// StatusCondition mirrors the Keycloak operator condition layout, where
// status is a string rather than a metav1.ConditionStatus.
type StatusCondition struct {
	Type string `json:"type"`
	// +optional
	Status string `json:"status,omitempty"`
	// +optional
	Message string `json:"message,omitempty"`
	// +optional
	LastTransitionTime string `json:"lastTransitionTime,omitempty"`
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
}

// SecretKeyReference points at a key in a Secret.
type SecretKeyReference struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// DatabaseSpec wires Keycloak to its database.
type DatabaseSpec struct {
	Vendor string `json:"vendor"`
	// +optional
	Host string `json:"host,omitempty"`
	// +optional
	Port int64 `json:"port,omitempty"`
	// +optional
	Database string `json:"database,omitempty"`
	// +optional
	UsernameSecret *SecretKeyReference `json:"usernameSecret,omitempty"`
	// +optional
	PasswordSecret *SecretKeyReference `json:"passwordSecret,omitempty"`
}

// HTTPSpec configures the Keycloak listener.
type HTTPSpec struct {
	// +optional
	HTTPEnabled bool `json:"httpEnabled,omitempty"`
	// +optional
	TLSSecret string `json:"tlsSecret,omitempty"`
}

// HostnameSpec configures the Keycloak frontend URL.
type HostnameSpec struct {
	// +optional
	Hostname string `json:"hostname,omitempty"`
	// +optional
	BackchannelDynamic bool `json:"backchannelDynamic,omitempty"`
}

// IngressSpec toggles the ingress created by the Keycloak operator.
type IngressSpec struct {
	Enabled bool `json:"enabled"`
}

// AdditionalOption is a raw Keycloak configuration option.
type AdditionalOption struct {
	Name string `json:"name"`
	// +optional
	Value string `json:"value,omitempty"`
}

// KeycloakSpec is the desired state of a Keycloak instance.
type KeycloakSpec struct {
	// +optional
	Instances *int64 `json:"instances,omitempty"`
	// +optional
	Resources *corev1.ResourceRequirements `json:"resources,omitempty"`
	// +optional
	DB *DatabaseSpec `json:"db,omitempty"`
	// +optional
	HTTP *HTTPSpec `json:"http,omitempty"`
	// +optional
	Hostname *HostnameSpec `json:"hostname,omitempty"`
	// +optional
	Ingress *IngressSpec `json:"ingress,omitempty"`
	// +optional
	AdditionalOptions []AdditionalOption `json:"additionalOptions,omitempty"`
}

// KeycloakStatus is the observed state of a Keycloak instance.
type KeycloakStatus struct {
	// +optional
	Instances int64 `json:"instances,omitempty"`
	// +optional
	Conditions []StatusCondition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// Keycloak is a Keycloak server instance managed by the Keycloak operator.
type Keycloak struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   KeycloakSpec   `json:"spec,omitempty"`
	Status KeycloakStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// KeycloakList contains a list of Keycloak.
type KeycloakList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Keycloak `json:"items"`
}

// HasCondition reports whether the condition type is present with status True.
func HasCondition(conditions []StatusCondition, conditionType string) bool {
	for _, c := range conditions {
		if c.Type == conditionType {
			return c.Status == ConditionStatusTrue
		}
	}
	return false
}

func init() {
	SchemeBuilder.Register(&Keycloak{}, &KeycloakList{})
}
