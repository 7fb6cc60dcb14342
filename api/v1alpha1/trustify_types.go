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

package v1alpha1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ConditionType identifies an aspect of Trustify health reported in status.
type ConditionType string

const (
	// ConditionReady is True once every active managed object converged and reports ready.
	ConditionReady ConditionType = "Ready"
	// ConditionHasErrors is True while a configuration or invariant error blocks at least one managed object.
	ConditionHasErrors ConditionType = "HasErrors"
	// ConditionRollingUpdate is True while a managed Deployment is rolling out a new revision.
	ConditionRollingUpdate ConditionType = "RollingUpdate"
)

// StorageStrategy selects where the server keeps uploaded documents.
// +kubebuilder:validation:Enum=filesystem;s3
type StorageStrategy string

const (
	// StorageStrategyFilesystem stores documents on a PersistentVolumeClaim mounted into the server.
	StorageStrategyFilesystem StorageStrategy = "filesystem"
	// StorageStrategyS3 stores documents in an S3 compatible bucket.
	StorageStrategyS3 StorageStrategy = "s3"
)

// StorageCompression is the compression applied to stored documents.
// +kubebuilder:validation:Enum=none;zstd
type StorageCompression string

const (
	StorageCompressionNone StorageCompression = "none"
	StorageCompressionZstd StorageCompression = "zstd"
)

// OIDCProviderType selects which identity provider the server trusts.
// +kubebuilder:validation:Enum=Embedded;External
type OIDCProviderType string

const (
	// OIDCProviderEmbedded provisions a Keycloak instance owned by the Trustify resource.
	OIDCProviderEmbedded OIDCProviderType = "Embedded"
	// OIDCProviderExternal trusts an identity provider managed outside the cluster.
	OIDCProviderExternal OIDCProviderType = "External"
)

// HostnameSpec configures the public hostname of the application.
type HostnameSpec struct {
	// Hostname is the DNS name used for the ingress and the identity provider frontend URL.
	// +optional
	Hostname string `json:"hostname,omitempty"`
}

// HTTPSpec configures HTTP termination for the server and the ingress.
type HTTPSpec struct {
	// TLSSecret is the name of a kubernetes.io/tls Secret in the same namespace.
	// When empty the operator uses a platform issued or self-issued certificate.
	// +optional
	TLSSecret string `json:"tlsSecret,omitempty"`
}

// DatabaseSpec configures the PostgreSQL database used by a component.
type DatabaseSpec struct {
	// ExternalDatabase selects a user managed database. When false the operator
	// runs a single-replica PostgreSQL Deployment.
	// +optional
	ExternalDatabase bool `json:"externalDatabase,omitempty"`
	// UsernameSecret references the database user.
	// +optional
	UsernameSecret *corev1.SecretKeySelector `json:"usernameSecret,omitempty"`
	// PasswordSecret references the database password.
	// +optional
	PasswordSecret *corev1.SecretKeySelector `json:"passwordSecret,omitempty"`
	// Host of an external database.
	// +optional
	Host string `json:"host,omitempty"`
	// Port of an external database.
	// +optional
	Port string `json:"port,omitempty"`
	// Name of the database.
	// +optional
	Name string `json:"name,omitempty"`
	// PVCSize is the volume size of a self-managed database, e.g. "10Gi".
	// +optional
	PVCSize string `json:"pvcSize,omitempty"`
	// Resources overrides the operator defaults for a self-managed database.
	// +optional
	Resources *ResourcesLimitSpec `json:"resources,omitempty"`
}

// FilesystemStorageSpec configures filesystem storage.
type FilesystemStorageSpec struct {
	// PVCSize is the size of the storage volume, e.g. "10Gi".
	// +optional
	PVCSize string `json:"pvcSize,omitempty"`
}

// S3StorageSpec configures object storage.
type S3StorageSpec struct {
	// +optional
	Bucket string `json:"bucket,omitempty"`
	// +optional
	Region string `json:"region,omitempty"`
	// +optional
	AccessKey string `json:"accessKey,omitempty"`
	// +optional
	SecretKey string `json:"secretKey,omitempty"`
}

// StorageSpec configures document storage for the server.
type StorageSpec struct {
	// Type selects the storage strategy. Defaults to filesystem.
	// +optional
	Type StorageStrategy `json:"type,omitempty"`
	// Compression applied to stored documents.
	// +optional
	Compression StorageCompression `json:"compression,omitempty"`
	// +optional
	Filesystem *FilesystemStorageSpec `json:"filesystem,omitempty"`
	// +optional
	S3 *S3StorageSpec `json:"s3,omitempty"`
}

// ExternalOIDCSpec points the application at a user managed identity provider.
type ExternalOIDCSpec struct {
	// ServerURL is the issuer URL of the identity provider.
	// +optional
	ServerURL string `json:"serverUrl,omitempty"`
	// UIClientID is the public client used by the web UI.
	// +optional
	UIClientID string `json:"uiClientId,omitempty"`
	// TLSSecret holds the CA the server uses to reach the provider.
	// +optional
	TLSSecret string `json:"tlsSecret,omitempty"`
}

// EmbeddedOIDCSpec configures the operator managed Keycloak instance.
type EmbeddedOIDCSpec struct {
	// DatabaseSpec configures the Keycloak database.
	// +optional
	DatabaseSpec *DatabaseSpec `json:"database,omitempty"`
	// TLSSecret is the certificate served by Keycloak.
	// +optional
	TLSSecret string `json:"tlsSecret,omitempty"`
}

// OIDCSpec configures authentication.
type OIDCSpec struct {
	// Enabled turns authentication on.
	// +optional
	Enabled bool `json:"enabled,omitempty"`
	// Type selects the identity provider. Defaults to Embedded.
	// +optional
	Type OIDCProviderType `json:"type,omitempty"`
	// ExternalServer is the legacy way of selecting an external provider.
	// Deprecated: use Type. Ignored when Type is set.
	// +optional
	ExternalServer *bool `json:"externalServer,omitempty"`
	// +optional
	External *ExternalOIDCSpec `json:"external,omitempty"`
	// +optional
	Embedded *EmbeddedOIDCSpec `json:"embedded,omitempty"`
}

// ResourcesLimitSpec configures container requests and limits.
type ResourcesLimitSpec struct {
	// +optional
	CPURequest string `json:"cpuRequest,omitempty"`
	// +optional
	CPULimit string `json:"cpuLimit,omitempty"`
	// +optional
	MemoryRequest string `json:"memoryRequest,omitempty"`
	// +optional
	MemoryLimit string `json:"memoryLimit,omitempty"`
}

// GatewayReference identifies a Gateway API Gateway.
type GatewayReference struct {
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`
	// Namespace defaults to the Trustify namespace.
	// +optional
	Namespace string `json:"namespace,omitempty"`
}

// GatewaySpec exposes the UI through a Gateway API HTTPRoute.
type GatewaySpec struct {
	// +optional
	Enabled bool `json:"enabled,omitempty"`
	// +optional
	GatewayRef GatewayReference `json:"gatewayRef,omitempty"`
	// +optional
	Annotations map[string]string `json:"annotations,omitempty"`
}

// TrustifySpec defines the desired state of Trustify.
type TrustifySpec struct {
	// +optional
	HostnameSpec *HostnameSpec `json:"hostname,omitempty"`
	// +optional
	HTTPSpec *HTTPSpec `json:"http,omitempty"`
	// +optional
	DatabaseSpec *DatabaseSpec `json:"database,omitempty"`
	// +optional
	StorageSpec *StorageSpec `json:"storage,omitempty"`
	// +optional
	OIDCSpec *OIDCSpec `json:"oidc,omitempty"`
	// ServerResourceLimits overrides the operator defaults for the server container.
	// +optional
	ServerResourceLimits *ResourcesLimitSpec `json:"serverResourceLimits,omitempty"`
	// +optional
	Gateway *GatewaySpec `json:"gateway,omitempty"`
}

// TrustifyStatus defines the observed state of Trustify.
type TrustifyStatus struct {
	// +optional
	// +listType=map
	// +listMapKey=type
	Conditions []metav1.Condition `json:"conditions,omitempty"`
	// ObservedGeneration is the generation last processed by a complete pass.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:path=trustifies,scope=Namespaced,shortName=tf
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=`.status.conditions[?(@.type=="Ready")].status`
// +kubebuilder:printcolumn:name="Errors",type=string,JSONPath=`.status.conditions[?(@.type=="HasErrors")].status`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// Trustify is the Schema for the trustifies API.
type Trustify struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   TrustifySpec   `json:"spec,omitempty"`
	Status TrustifyStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// TrustifyList contains a list of Trustify.
type TrustifyList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Trustify `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Trustify{}, &TrustifyList{})
}
