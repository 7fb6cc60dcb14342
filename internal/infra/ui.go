package infra

import (
	"errors"
	"fmt"
	"strconv"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/trustification/trustify-operator/internal/conditions"
	"github.com/trustification/trustify-operator/internal/config"
	"github.com/trustification/trustify-operator/internal/constants"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

// BuildUIService returns the UI Service.
func BuildUIService(p *reconcile.Pass) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name(constants.SuffixUIService),
			Namespace: p.Namespace(),
			Labels:    objectLabels(p, conditions.RoleUI, conditions.VariantNone),
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: podLabels(p, conditions.RoleUI, conditions.VariantNone),
			Ports: []corev1.ServicePort{
				{
					Name:       constants.PortNameHTTP,
					Port:       constants.PortHTTP,
					TargetPort: intstr.FromInt32(constants.PortHTTP),
					Protocol:   corev1.ProtocolTCP,
				},
			},
		},
	}
}

// uiEnv points the UI at the server API and the identity provider.
func uiEnv(p *reconcile.Pass) ([]corev1.EnvVar, error) {
	scheme := "http"
	if p.ServerTLSSecret != "" {
		scheme = "https"
	}
	env := []corev1.EnvVar{
		{Name: "TRUSTIFY_API_URL", Value: fmt.Sprintf("%s://%s:%d", scheme, p.Name(constants.SuffixServerService), constants.PortHTTP)},
	}

	// An invalid identity spec leaves the UI up with authentication required and
	// no issuer, so nothing is served unauthenticated until the spec is fixed.
	if p.IdentityErr != nil {
		return append(env, corev1.EnvVar{Name: "AUTH_REQUIRED", Value: strconv.FormatBool(true)}), nil
	}

	switch id := p.Identity.(type) {
	case reconcile.IdentityDisabled:
		env = append(env, corev1.EnvVar{Name: "AUTH_REQUIRED", Value: strconv.FormatBool(false)})
	case reconcile.ExternalIdentity:
		env = append(env,
			corev1.EnvVar{Name: "AUTH_REQUIRED", Value: strconv.FormatBool(true)},
			corev1.EnvVar{Name: "OIDC_CLIENT_ID", Value: id.UIClientID},
			corev1.EnvVar{Name: "OIDC_SERVER_URL", Value: id.ServerURL},
		)
	case reconcile.EmbeddedIdentity:
		if p.Keycloak == nil {
			return nil, errors.New("embedded identity provider has not been resolved")
		}
		env = append(env,
			corev1.EnvVar{Name: "AUTH_REQUIRED", Value: strconv.FormatBool(true)},
			corev1.EnvVar{Name: "OIDC_CLIENT_ID", Value: p.Keycloak.UIClientID},
			corev1.EnvVar{Name: "OIDC_SERVER_URL", Value: p.Keycloak.PublicIssuerURL()},
		)
	default:
		return nil, fmt.Errorf("unknown identity mode %T", p.Identity)
	}

	out := env[:0]
	for _, e := range env {
		if e.Value != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// BuildUIDeployment returns the UI Deployment.
func BuildUIDeployment(p *reconcile.Pass, settings *config.Settings) (*appsv1.Deployment, error) {
	env, err := uiEnv(p)
	if err != nil {
		return nil, err
	}
	resources, err := config.Requirements(settings.Resources.UI, nil)
	if err != nil {
		return nil, err
	}
	labels := podLabels(p, conditions.RoleUI, conditions.VariantNone)

	probe := func(initialDelay int32) *corev1.Probe {
		return &corev1.Probe{
			ProbeHandler: corev1.ProbeHandler{
				HTTPGet: &corev1.HTTPGetAction{
					Path:   "/",
					Port:   intstr.FromInt32(constants.PortHTTP),
					Scheme: corev1.URISchemeHTTP,
				},
			},
			InitialDelaySeconds: initialDelay,
			TimeoutSeconds:      1,
			PeriodSeconds:       10,
			SuccessThreshold:    1,
			FailureThreshold:    3,
		}
	}

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name(constants.SuffixUIDeployment),
			Namespace: p.Namespace(),
			Labels:    objectLabels(p, conditions.RoleUI, conditions.VariantNone),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To[int32](1),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					SecurityContext: restrictedPodSecurityContext(),
					Containers: []corev1.Container{
						{
							Name:            constants.ContainerNameUI,
							Image:           settings.UIImage,
							ImagePullPolicy: settings.ImagePullPolicy,
							Env:             env,
							Ports: []corev1.ContainerPort{
								{Name: constants.PortNameHTTP, ContainerPort: constants.PortHTTP, Protocol: corev1.ProtocolTCP},
							},
							ReadinessProbe:  probe(5),
							LivenessProbe:   probe(15),
							Resources:       resources,
							SecurityContext: restrictedContainerSecurityContext(),
						},
					},
				},
			},
		},
	}, nil
}
