package infra

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/trustification/trustify-operator/internal/cluster"
	"github.com/trustification/trustify-operator/internal/conditions"
	"github.com/trustification/trustify-operator/internal/config"
	"github.com/trustification/trustify-operator/internal/constants"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

const (
	serverBinary = "/usr/local/bin/trustd"
	serverArg    = "api"
)

// ServerDNSNames are the names a self-issued server certificate is valid for.
func ServerDNSNames(p *reconcile.Pass) []string {
	svc := p.Name(constants.SuffixServerService)
	names := []string{
		svc,
		fmt.Sprintf("%s.%s", svc, p.Namespace()),
		fmt.Sprintf("%s.%s.svc", svc, p.Namespace()),
	}
	if host, ok := p.PublicHost(); ok {
		names = append(names, host)
	}
	return names
}

// BuildServerConfigMap returns the config map holding the rendered auth document.
func BuildServerConfigMap(p *reconcile.Pass, authDocument string) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name(constants.SuffixServerConfigMap),
			Namespace: p.Namespace(),
			Labels:    objectLabels(p, conditions.RoleServer, conditions.VariantNone),
		},
		Data: map[string]string{
			constants.ConfigMapAuthKey: authDocument,
		},
	}
}

// BuildServerPVC returns the document storage volume claim.
func BuildServerPVC(p *reconcile.Pass, settings *config.Settings) (*corev1.PersistentVolumeClaim, error) {
	size := settings.ServerPVCSize
	if fs, ok := p.Storage.(reconcile.FilesystemStorage); ok && fs.PVCSize != "" {
		size = fs.PVCSize
	}
	return buildPVC(p, p.Name(constants.SuffixServerPVC), conditions.RoleServer, conditions.VariantNone, size)
}

// BuildServerService returns the server Service. Without an explicit TLS secret
// it asks the platform, when able, to issue a serving certificate.
func BuildServerService(p *reconcile.Pass) *corev1.Service {
	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name(constants.SuffixServerService),
			Namespace: p.Namespace(),
			Labels:    objectLabels(p, conditions.RoleServer, conditions.VariantNone),
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: podLabels(p, conditions.RoleServer, conditions.VariantNone),
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
	if p.SpecTLSSecret() == "" {
		svc.Annotations = p.Capability.ServingCertAnnotations(p.Trustify, cluster.PurposeServer)
	}
	return svc
}

// BuildServerDeployment returns the server Deployment. configRevision is set on
// the pod template so configuration changes roll the pods.
func BuildServerDeployment(p *reconcile.Pass, settings *config.Settings, surface *config.Surface, configRevision string) (*appsv1.Deployment, error) {
	resources, err := config.Requirements(settings.Resources.Server, p.Trustify.Spec.ServerResourceLimits)
	if err != nil {
		return nil, err
	}
	labels := podLabels(p, conditions.RoleServer, conditions.VariantNone)

	infraProbe := func(path string) corev1.ProbeHandler {
		return corev1.ProbeHandler{
			HTTPGet: &corev1.HTTPGetAction{
				Path:   path,
				Port:   intstr.FromInt32(constants.PortInfrastructure),
				Scheme: corev1.URISchemeHTTP,
			},
		}
	}

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name(constants.SuffixServerDeployment),
			Namespace: p.Namespace(),
			Labels:    objectLabels(p, conditions.RoleServer, conditions.VariantNone),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To[int32](1),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Strategy: appsv1.DeploymentStrategy{Type: appsv1.RecreateDeploymentStrategyType},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels:      labels,
					Annotations: map[string]string{constants.AnnotationConfigRevision: configRevision},
				},
				Spec: corev1.PodSpec{
					SecurityContext: restrictedPodSecurityContext(),
					Containers: []corev1.Container{
						{
							Name:            constants.ContainerNameServer,
							Image:           settings.ServerImage,
							ImagePullPolicy: settings.ImagePullPolicy,
							Command:         []string{serverBinary},
							Args:            []string{serverArg},
							Env:             surface.EnvVars(),
							Ports: []corev1.ContainerPort{
								{Name: constants.PortNameHTTP, ContainerPort: constants.PortHTTP, Protocol: corev1.ProtocolTCP},
								{Name: constants.PortNameInfrastructure, ContainerPort: constants.PortInfrastructure, Protocol: corev1.ProtocolTCP},
							},
							StartupProbe: &corev1.Probe{
								ProbeHandler:     infraProbe("/health/startup"),
								TimeoutSeconds:   1,
								PeriodSeconds:    10,
								SuccessThreshold: 1,
								FailureThreshold: 30,
							},
							LivenessProbe: &corev1.Probe{
								ProbeHandler:     infraProbe("/health/live"),
								TimeoutSeconds:   1,
								PeriodSeconds:    10,
								SuccessThreshold: 1,
								FailureThreshold: 3,
							},
							ReadinessProbe: &corev1.Probe{
								ProbeHandler:     infraProbe("/health/ready"),
								TimeoutSeconds:   1,
								PeriodSeconds:    10,
								SuccessThreshold: 1,
								FailureThreshold: 3,
							},
							Resources:       resources,
							SecurityContext: restrictedContainerSecurityContext(),
							VolumeMounts:    surface.VolumeMounts(),
						},
					},
					Volumes: surface.Volumes(),
				},
			},
		},
	}, nil
}
