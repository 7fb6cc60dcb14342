package infra

import (
	"errors"
	"strings"

	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	"github.com/trustification/trustify-operator/internal/conditions"
	"github.com/trustification/trustify-operator/internal/constants"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

type route struct {
	path    string
	service string
	port    int32
}

// routes lists the paths exposed publicly: the UI at "/" and, with an embedded
// identity provider, Keycloak under its relative path.
func routes(p *reconcile.Pass) []route {
	out := []route{{path: "/", service: p.Name(constants.SuffixUIService), port: constants.PortHTTP}}
	if _, ok := p.EmbeddedIdentity(); ok && p.Keycloak != nil {
		out = append(out, route{path: constants.KeycloakRelativePath, service: p.Keycloak.ServiceName, port: p.Keycloak.EdgePort()})
	}
	return out
}

// BuildIngress returns the Ingress exposing the UI. The host rule is omitted when
// no public host resolves.
func BuildIngress(p *reconcile.Pass) *networkingv1.Ingress {
	pathType := networkingv1.PathTypePrefix
	var paths []networkingv1.HTTPIngressPath
	for _, r := range routes(p) {
		paths = append(paths, networkingv1.HTTPIngressPath{
			Path:     r.path,
			PathType: &pathType,
			Backend: networkingv1.IngressBackend{
				Service: &networkingv1.IngressServiceBackend{
					Name: r.service,
					Port: networkingv1.ServiceBackendPort{Number: r.port},
				},
			},
		})
	}

	host, _ := p.PublicHost()
	ingress := &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name(constants.SuffixIngress),
			Namespace: p.Namespace(),
			Labels:    objectLabels(p, conditions.RoleUI, conditions.VariantHTTPS),
		},
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{
				{
					Host: host,
					IngressRuleValue: networkingv1.IngressRuleValue{
						HTTP: &networkingv1.HTTPIngressRuleValue{Paths: paths},
					},
				},
			},
		},
	}

	if secret := p.SpecTLSSecret(); secret != "" {
		tls := networkingv1.IngressTLS{SecretName: secret}
		if host != "" {
			tls.Hosts = []string{host}
		}
		ingress.Spec.TLS = []networkingv1.IngressTLS{tls}
	}

	return ingress
}

// BuildHTTPRoute returns the Gateway API HTTPRoute exposing the UI through the
// referenced Gateway.
func BuildHTTPRoute(p *reconcile.Pass) (*gatewayv1.HTTPRoute, error) {
	gw := p.Trustify.Spec.Gateway
	if gw == nil || strings.TrimSpace(gw.GatewayRef.Name) == "" {
		return nil, operatorerrors.WithReason(
			operatorerrors.WrapPermanentConfig(errors.New("gateway.gatewayRef.name is required when gateway is enabled")),
			"GatewayRefMissing")
	}

	gatewayNamespace := strings.TrimSpace(gw.GatewayRef.Namespace)
	if gatewayNamespace == "" {
		gatewayNamespace = p.Namespace()
	}

	pathType := gatewayv1.PathMatchPathPrefix
	var rules []gatewayv1.HTTPRouteRule
	for _, r := range routes(p) {
		rules = append(rules, gatewayv1.HTTPRouteRule{
			Matches: []gatewayv1.HTTPRouteMatch{
				{
					Path: &gatewayv1.HTTPPathMatch{
						Type:  &pathType,
						Value: ptr.To(r.path),
					},
				},
			},
			BackendRefs: []gatewayv1.HTTPBackendRef{
				{
					BackendRef: gatewayv1.BackendRef{
						BackendObjectReference: gatewayv1.BackendObjectReference{
							Name: gatewayv1.ObjectName(r.service),
							Port: ptr.To(gatewayv1.PortNumber(r.port)),
						},
					},
				},
			},
		})
	}

	httpRoute := &gatewayv1.HTTPRoute{
		ObjectMeta: metav1.ObjectMeta{
			Name:        p.Name(constants.SuffixHTTPRoute),
			Namespace:   p.Namespace(),
			Labels:      objectLabels(p, conditions.RoleUI, conditions.VariantGateway),
			Annotations: gw.Annotations,
		},
		Spec: gatewayv1.HTTPRouteSpec{
			CommonRouteSpec: gatewayv1.CommonRouteSpec{
				ParentRefs: []gatewayv1.ParentReference{
					{
						Name:      gatewayv1.ObjectName(gw.GatewayRef.Name),
						Namespace: ptr.To(gatewayv1.Namespace(gatewayNamespace)),
					},
				},
			},
			Rules: rules,
		},
	}
	if host, ok := p.PublicHost(); ok {
		httpRoute.Spec.Hostnames = []gatewayv1.Hostname{gatewayv1.Hostname(host)}
	}

	return httpRoute, nil
}
