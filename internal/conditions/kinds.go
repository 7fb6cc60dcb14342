package conditions

import (
	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/constants"
)

// Role discriminates the component a managed object belongs to.
type Role string

const (
	RoleDB       Role = "db"
	RoleKeycloak Role = "keycloak"
	RoleServer   Role = "server"
	RoleUI       Role = "ui"
)

// Variant discriminates several objects of one kind within a role.
type Variant string

const (
	VariantNone    Variant = ""
	VariantDB      Variant = "db"
	VariantTLS     Variant = "tls"
	VariantHTTPS   Variant = "https"
	VariantGateway Variant = "gateway"
)

// Kind identifies one managed-object slot: an object type plus its role and variant.
type Kind struct {
	Role    Role
	Variant Variant
	// Object is the Kubernetes kind, e.g. "Deployment".
	Object string
}

func (k Kind) String() string {
	if k.Variant == VariantNone {
		return string(k.Role) + "/" + k.Object
	}
	return string(k.Role) + "/" + string(k.Variant) + "/" + k.Object
}

// Labels returns the labels carried by every object of this kind.
func (k Kind) Labels(cr *trustifyv1alpha1.Trustify) map[string]string {
	labels := map[string]string{
		constants.LabelAppName:         cr.Name,
		constants.LabelAppPartOf:       cr.Name,
		constants.LabelAppManagedBy:    constants.LabelValueManagedBy,
		constants.LabelTrustifyCluster: constants.LabelValueTrustifyCluster,
		constants.LabelComponent:       string(k.Role),
	}
	if k.Variant != VariantNone {
		labels[constants.LabelComponentVariant] = string(k.Variant)
	}
	return labels
}

// SelectorLabels returns the labels that identify this kind's objects for a Trustify.
func (k Kind) SelectorLabels(cr *trustifyv1alpha1.Trustify) map[string]string {
	labels := map[string]string{
		constants.LabelAppName:      cr.Name,
		constants.LabelAppManagedBy: constants.LabelValueManagedBy,
		constants.LabelComponent:    string(k.Role),
	}
	if k.Variant != VariantNone {
		labels[constants.LabelComponentVariant] = string(k.Variant)
	}
	return labels
}

// PodLabels are the selector labels used by a Deployment and its Service.
func PodLabels(cr *trustifyv1alpha1.Trustify, role Role, variant Variant) map[string]string {
	return Kind{Role: role, Variant: variant}.SelectorLabels(cr)
}
