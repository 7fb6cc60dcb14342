package infra

import (
	"github.com/trustification/trustify-operator/internal/conditions"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

func objectLabels(p *reconcile.Pass, role conditions.Role, variant conditions.Variant) map[string]string {
	return conditions.Kind{Role: role, Variant: variant}.Labels(p.Trustify)
}

func podLabels(p *reconcile.Pass, role conditions.Role, variant conditions.Variant) map[string]string {
	return conditions.PodLabels(p.Trustify, role, variant)
}
