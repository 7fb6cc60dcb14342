package constants

const (
	ControllerNameTrustify = "trustify"
	// FieldOwner identifies the operator in managed fields and audit logs.
	FieldOwner = "trustify-operator"
)
