package config

import (
	"fmt"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/utils/ptr"

	"github.com/trustification/trustify-operator/internal/constants"
	"github.com/trustification/trustify-operator/internal/reconcile"
	"github.com/trustification/trustify-operator/internal/revision"
)

// Option is one server runtime option. Exactly one of Value and SecretRef is set.
type Option struct {
	Name      string
	Value     string
	SecretRef *corev1.SecretKeySelector
}

// Mount pairs a pod volume with its mount in the server container.
type Mount struct {
	Volume      corev1.Volume
	VolumeMount corev1.VolumeMount
}

// Surface is the compiled server configuration: ordered options and mounts.
type Surface struct {
	Options []Option
	Mounts  []Mount
}

func (s *Surface) literal(name, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	s.Options = append(s.Options, Option{Name: name, Value: value})
}

func (s *Surface) secret(name string, ref *corev1.SecretKeySelector) {
	if ref == nil || strings.TrimSpace(ref.Name) == "" || strings.TrimSpace(ref.Key) == "" {
		return
	}
	s.Options = append(s.Options, Option{Name: name, SecretRef: ref.DeepCopy()})
}

func (s *Surface) mount(volume corev1.Volume, mount corev1.VolumeMount) {
	s.Mounts = append(s.Mounts, Mount{Volume: volume, VolumeMount: mount})
}

// Lookup returns the option with the given name.
func (s *Surface) Lookup(name string) (Option, bool) {
	for _, o := range s.Options {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// EnvVars renders the options as container environment variables.
func (s *Surface) EnvVars() []corev1.EnvVar {
	out := make([]corev1.EnvVar, 0, len(s.Options))
	for _, o := range s.Options {
		if o.SecretRef != nil {
			out = append(out, corev1.EnvVar{
				Name:      o.Name,
				ValueFrom: &corev1.EnvVarSource{SecretKeyRef: o.SecretRef.DeepCopy()},
			})
			continue
		}
		out = append(out, corev1.EnvVar{Name: o.Name, Value: o.Value})
	}
	return out
}

// Volumes returns the pod volumes in order.
func (s *Surface) Volumes() []corev1.Volume {
	out := make([]corev1.Volume, 0, len(s.Mounts))
	for _, m := range s.Mounts {
		out = append(out, *m.Volume.DeepCopy())
	}
	return out
}

// VolumeMounts returns the container mounts in order.
func (s *Surface) VolumeMounts() []corev1.VolumeMount {
	out := make([]corev1.VolumeMount, 0, len(s.Mounts))
	for _, m := range s.Mounts {
		out = append(out, *m.VolumeMount.DeepCopy())
	}
	return out
}

// Revision hashes the surface together with rendered files such as the auth
// document. It changes whenever the server must be restarted.
func (s *Surface) Revision(files ...string) (string, error) {
	rev, err := revision.Of(s)
	if err != nil {
		return "", err
	}
	parts := [][]byte{[]byte(rev)}
	for _, f := range files {
		parts = append(parts, []byte(f))
	}
	return revision.Bytes(parts...), nil
}

// Compile derives the server configuration surface from the normalized modes
// and the resolver outputs recorded on p.
func Compile(p *reconcile.Pass) (*Surface, error) {
	s := &Surface{}

	compileGeneral(s, p)
	compileHTTP(s, p)
	compileDatabase(s, p)
	if err := compileStorage(s, p); err != nil {
		return nil, err
	}
	if err := compileIdentity(s, p); err != nil {
		return nil, err
	}
	return s, nil
}

func compileGeneral(s *Surface, p *reconcile.Pass) {
	s.literal("RUST_LOG", "info")
	s.literal("INFRASTRUCTURE_ENABLED", "true")
	s.literal("INFRASTRUCTURE_BIND", "[::]:"+strconv.Itoa(int(constants.PortInfrastructure)))

	if ext, ok := p.Identity.(reconcile.ExternalIdentity); ok && p.IdentityErr == nil && ext.TLSSecret != "" {
		s.literal("CLIENT_TLS_CA_CERTIFICATES", constants.PathOIDCTLS+"/"+constants.FileTLSCertificate)
		s.mount(
			corev1.Volume{
				Name: constants.VolumeOIDCTLS,
				VolumeSource: corev1.VolumeSource{
					Secret: &corev1.SecretVolumeSource{SecretName: ext.TLSSecret, Optional: ptr.To(false)},
				},
			},
			corev1.VolumeMount{Name: constants.VolumeOIDCTLS, MountPath: constants.PathOIDCTLS, ReadOnly: true},
		)
		return
	}
	s.literal("CLIENT_TLS_CA_CERTIFICATES", constants.PathServiceCA)
}

func compileHTTP(s *Surface, p *reconcile.Pass) {
	if p.ServerTLSSecret != "" {
		s.literal("HTTP_SERVER_TLS_ENABLED", "true")
		s.literal("HTTP_SERVER_TLS_CERTIFICATE_FILE", constants.PathServerTLS+"/"+constants.FileTLSCertificate)
		s.literal("HTTP_SERVER_TLS_KEY_FILE", constants.PathServerTLS+"/"+constants.FileTLSPrivateKey)
		s.mount(
			corev1.Volume{
				Name: constants.VolumeServerTLS,
				VolumeSource: corev1.VolumeSource{
					Secret: &corev1.SecretVolumeSource{SecretName: p.ServerTLSSecret, Optional: ptr.To(false)},
				},
			},
			corev1.VolumeMount{Name: constants.VolumeServerTLS, MountPath: constants.PathServerTLS, ReadOnly: true},
		)
	}
	s.literal("HTTP_SERVER_BIND_ADDR", "::")
}

func compileDatabase(s *Surface, p *reconcile.Pass) {
	switch db := p.Database.(type) {
	case reconcile.ExternalDatabase:
		s.secret("TRUSTD_DB_USER", db.Username)
		s.secret("TRUSTD_DB_PASSWORD", db.Password)
		s.literal("TRUSTD_DB_NAME", db.Name)
		s.literal("TRUSTD_DB_HOST", db.Host)
		s.literal("TRUSTD_DB_PORT", db.Port)
	case reconcile.SelfManagedDatabase:
		username, password := DatabaseCredentials(db, p.Name(constants.SuffixDBSecret))
		s.secret("TRUSTD_DB_USER", username)
		s.secret("TRUSTD_DB_PASSWORD", password)
		s.literal("TRUSTD_DB_NAME", constants.DBNameTrustify)
		s.literal("TRUSTD_DB_HOST", p.Name(constants.SuffixDBService))
		s.literal("TRUSTD_DB_PORT", strconv.Itoa(int(constants.PortPostgres)))
	}
}

// DatabaseCredentials returns the credential references of a self-managed
// database: the explicit ones when supplied, otherwise the generated secret.
func DatabaseCredentials(db reconcile.SelfManagedDatabase, generatedSecret string) (*corev1.SecretKeySelector, *corev1.SecretKeySelector) {
	if db.HasExplicitCredentials() {
		return db.Username, db.Password
	}
	return &corev1.SecretKeySelector{
			LocalObjectReference: corev1.LocalObjectReference{Name: generatedSecret},
			Key:                  constants.DBSecretUsernameKey,
		}, &corev1.SecretKeySelector{
			LocalObjectReference: corev1.LocalObjectReference{Name: generatedSecret},
			Key:                  constants.DBSecretPasswordKey,
		}
}

func compileStorage(s *Surface, p *reconcile.Pass) error {
	switch st := p.Storage.(type) {
	case reconcile.FilesystemStorage:
		s.literal("TRUSTD_STORAGE_STRATEGY", "fs")
		s.literal("TRUSTD_STORAGE_COMPRESSION", st.CompressionName())
		s.literal("TRUSTD_STORAGE_FS_PATH", constants.PathServerStorage)
		s.mount(
			corev1.Volume{
				Name: constants.VolumeServerData,
				VolumeSource: corev1.VolumeSource{
					PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: p.Name(constants.SuffixServerPVC)},
				},
			},
			corev1.VolumeMount{Name: constants.VolumeServerData, MountPath: constants.PathServerData},
		)
	case reconcile.ObjectStorage:
		s.literal("TRUSTD_STORAGE_STRATEGY", "s3")
		s.literal("TRUSTD_STORAGE_COMPRESSION", st.CompressionName())
		s.literal("TRUSTD_S3_BUCKET", st.Bucket)
		s.literal("TRUSTD_S3_REGION", st.Region)
		s.literal("TRUSTD_S3_ACCESS_KEY", st.AccessKey)
		s.literal("TRUSTD_S3_SECRET_KEY", st.SecretKey)
	default:
		return fmt.Errorf("unknown storage mode %T", p.Storage)
	}
	return nil
}

func compileIdentity(s *Surface, p *reconcile.Pass) error {
	if p.IdentityErr != nil {
		return p.IdentityErr
	}

	switch id := p.Identity.(type) {
	case reconcile.IdentityDisabled:
		s.literal("AUTH_DISABLED", "true")
		return nil
	case reconcile.ExternalIdentity:
		s.literal("UI_ISSUER_URL", id.ServerURL)
		s.literal("UI_CLIENT_ID", id.UIClientID)
	case reconcile.EmbeddedIdentity:
		if p.Keycloak == nil {
			return fmt.Errorf("embedded identity provider has not been resolved")
		}
		s.literal("UI_CLIENT_ID", p.Keycloak.UIClientID)
	default:
		return fmt.Errorf("unknown identity mode %T", p.Identity)
	}

	s.mount(
		corev1.Volume{
			Name: constants.VolumeAuth,
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: p.Name(constants.SuffixServerConfigMap)},
					DefaultMode:          ptr.To[int32](420),
				},
			},
		},
		corev1.VolumeMount{
			Name:      constants.VolumeAuth,
			MountPath: constants.PathAuthDocument,
			SubPath:   constants.ConfigMapAuthKey,
		},
	)
	s.literal("AUTH_CONFIGURATION", constants.PathAuthDocument)
	s.literal("AUTH_DISABLED", "false")
	return nil
}
