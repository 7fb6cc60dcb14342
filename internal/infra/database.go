package infra

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/trustification/trustify-operator/internal/conditions"
	"github.com/trustification/trustify-operator/internal/config"
	"github.com/trustification/trustify-operator/internal/constants"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

const generatedPasswordBytes = 24

// DatabaseTarget names the objects of one self-managed PostgreSQL instance. The
// Trustify server and the embedded identity provider each get their own.
type DatabaseTarget struct {
	Role    conditions.Role
	Variant conditions.Variant

	SecretName     string
	PVCName        string
	DeploymentName string
	ServiceName    string
	DatabaseName   string

	Mode reconcile.SelfManagedDatabase
}

// TrustifyDatabase returns the target of the server database.
func TrustifyDatabase(p *reconcile.Pass) DatabaseTarget {
	mode, _ := p.Database.(reconcile.SelfManagedDatabase)
	return DatabaseTarget{
		Role:           conditions.RoleDB,
		Variant:        conditions.VariantNone,
		SecretName:     p.Name(constants.SuffixDBSecret),
		PVCName:        p.Name(constants.SuffixDBPVC),
		DeploymentName: p.Name(constants.SuffixDBDeployment),
		ServiceName:    p.Name(constants.SuffixDBService),
		DatabaseName:   constants.DBNameTrustify,
		Mode:           mode,
	}
}

// KeycloakDatabase returns the target of the identity provider database.
func KeycloakDatabase(p *reconcile.Pass) DatabaseTarget {
	var mode reconcile.SelfManagedDatabase
	if e, ok := p.EmbeddedIdentity(); ok {
		mode, _ = e.Database.(reconcile.SelfManagedDatabase)
	}
	return DatabaseTarget{
		Role:           conditions.RoleKeycloak,
		Variant:        conditions.VariantDB,
		SecretName:     p.Name(constants.SuffixKeycloakDBSecret),
		PVCName:        p.Name(constants.SuffixKeycloakDBPVC),
		DeploymentName: p.Name(constants.SuffixKeycloakDBDeployment),
		ServiceName:    p.Name(constants.SuffixKeycloakDBService),
		DatabaseName:   constants.DBNameKeycloak,
		Mode:           mode,
	}
}

// Credentials returns the username and password references used by the database
// and its clients.
func (t DatabaseTarget) Credentials() (*corev1.SecretKeySelector, *corev1.SecretKeySelector) {
	return config.DatabaseCredentials(t.Mode, t.SecretName)
}

// BuildDatabaseSecret returns the generated credentials secret. The password is
// random, so the secret is only ever created, never updated.
func BuildDatabaseSecret(p *reconcile.Pass, t DatabaseTarget) (*corev1.Secret, error) {
	password, err := randomPassword()
	if err != nil {
		return nil, err
	}
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      t.SecretName,
			Namespace: p.Namespace(),
			Labels:    objectLabels(p, t.Role, t.Variant),
		},
		Type: corev1.SecretTypeOpaque,
		Data: map[string][]byte{
			constants.DBSecretUsernameKey: []byte(constants.DBUsername),
			constants.DBSecretPasswordKey: []byte(password),
		},
	}, nil
}

// BuildDatabasePVC returns the data volume claim.
func BuildDatabasePVC(p *reconcile.Pass, t DatabaseTarget, settings *config.Settings) (*corev1.PersistentVolumeClaim, error) {
	size := t.Mode.PVCSize
	if size == "" {
		size = settings.DBPVCSize
	}
	return buildPVC(p, t.PVCName, t.Role, t.Variant, size)
}

func buildPVC(p *reconcile.Pass, name string, role conditions.Role, variant conditions.Variant, size string) (*corev1.PersistentVolumeClaim, error) {
	quantity, err := resource.ParseQuantity(size)
	if err != nil {
		return nil, operatorerrors.WithReason(
			operatorerrors.WrapPermanentConfig(fmt.Errorf("invalid volume size %q for %s: %w", size, name, err)),
			"InvalidVolumeSize")
	}
	return &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: p.Namespace(),
			Labels:    objectLabels(p, role, variant),
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: quantity},
			},
		},
	}, nil
}

// BuildDatabaseDeployment returns a single-replica PostgreSQL Deployment.
func BuildDatabaseDeployment(p *reconcile.Pass, t DatabaseTarget, settings *config.Settings) (*appsv1.Deployment, error) {
	resources, err := config.Requirements(settings.Resources.DB, t.Mode.Resources)
	if err != nil {
		return nil, err
	}
	username, password := t.Credentials()
	labels := podLabels(p, t.Role, t.Variant)

	readiness := &corev1.Probe{
		ProbeHandler: corev1.ProbeHandler{
			Exec: &corev1.ExecAction{
				Command: []string{"/bin/sh", "-c", "psql -q -d $POSTGRESQL_DATABASE -U $POSTGRESQL_USER -c 'SELECT 1'"},
			},
		},
		InitialDelaySeconds: 5,
		PeriodSeconds:       10,
		TimeoutSeconds:      5,
		SuccessThreshold:    1,
		FailureThreshold:    3,
	}
	liveness := &corev1.Probe{
		ProbeHandler: corev1.ProbeHandler{
			TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromInt32(constants.PortPostgres)},
		},
		InitialDelaySeconds: 30,
		PeriodSeconds:       10,
		TimeoutSeconds:      5,
		SuccessThreshold:    1,
		FailureThreshold:    3,
	}

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      t.DeploymentName,
			Namespace: p.Namespace(),
			Labels:    objectLabels(p, t.Role, t.Variant),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To[int32](1),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Strategy: appsv1.DeploymentStrategy{Type: appsv1.RecreateDeploymentStrategyType},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					SecurityContext: restrictedPodSecurityContext(),
					Containers: []corev1.Container{
						{
							Name:            constants.ContainerNameDB,
							Image:           settings.DBImage,
							ImagePullPolicy: settings.ImagePullPolicy,
							Env: []corev1.EnvVar{
								{Name: "POSTGRESQL_USER", ValueFrom: &corev1.EnvVarSource{SecretKeyRef: username}},
								{Name: "POSTGRESQL_PASSWORD", ValueFrom: &corev1.EnvVarSource{SecretKeyRef: password}},
								{Name: "POSTGRESQL_DATABASE", Value: t.DatabaseName},
							},
							Ports: []corev1.ContainerPort{
								{Name: constants.PortNamePostgres, ContainerPort: constants.PortPostgres, Protocol: corev1.ProtocolTCP},
							},
							ReadinessProbe:  readiness,
							LivenessProbe:   liveness,
							Resources:       resources,
							SecurityContext: restrictedContainerSecurityContext(),
							VolumeMounts: []corev1.VolumeMount{
								{Name: constants.VolumeDBData, MountPath: constants.PathPostgresData},
							},
						},
					},
					Volumes: []corev1.Volume{
						{
							Name: constants.VolumeDBData,
							VolumeSource: corev1.VolumeSource{
								PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: t.PVCName},
							},
						},
					},
				},
			},
		},
	}, nil
}

// BuildDatabaseService returns the ClusterIP Service in front of the database.
func BuildDatabaseService(p *reconcile.Pass, t DatabaseTarget) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      t.ServiceName,
			Namespace: p.Namespace(),
			Labels:    objectLabels(p, t.Role, t.Variant),
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: podLabels(p, t.Role, t.Variant),
			Ports: []corev1.ServicePort{
				{
					Name:       constants.PortNamePostgres,
					Port:       constants.PortPostgres,
					TargetPort: intstr.FromInt32(constants.PortPostgres),
					Protocol:   corev1.ProtocolTCP,
				},
			},
		},
	}
}

func randomPassword() (string, error) {
	buf := make([]byte, generatedPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate database password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
