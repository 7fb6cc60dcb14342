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
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// KeycloakRealmImportSpec is the desired state of a realm import.
type KeycloakRealmImportSpec struct {
	// KeycloakCRName names the Keycloak instance in the same namespace.
	KeycloakCRName string `json:"keycloakCRName"`
	// Realm is a Keycloak RealmRepresentation.
	// +kubebuilder:pruning:PreserveUnknownFields
	Realm apiextensionsv1.JSON `json:"realm"`
}

// KeycloakRealmImportStatus is the observed state of a realm import.
type KeycloakRealmImportStatus struct {
	// +optional
	Conditions []StatusCondition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// KeycloakRealmImport is a one-shot import of a realm into a Keycloak instance.
type KeycloakRealmImport struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   KeycloakRealmImportSpec   `json:"spec,omitempty"`
	Status KeycloakRealmImportStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// KeycloakRealmImportList contains a list of KeycloakRealmImport.
type KeycloakRealmImportList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []KeycloakRealmImport `json:"items"`
}

func init() {
	SchemeBuilder.Register(&KeycloakRealmImport{}, &KeycloakRealmImportList{})
}
