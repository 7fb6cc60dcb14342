package constants

// Common Kubernetes label keys used by the operator.
const (
	LabelAppName      = "app.kubernetes.io/name"
	LabelAppPartOf    = "app.kubernetes.io/part-of"
	LabelAppManagedBy = "app.kubernetes.io/managed-by"

	LabelTrustifyCluster  = "trustify-operator/cluster"
	LabelComponent        = "component"
	LabelComponentVariant = "component-variant"
)

// Common label values used by the operator.
const (
	LabelValueManagedBy       = "trustify-operator"
	LabelValueTrustifyCluster = "trustify"
)
