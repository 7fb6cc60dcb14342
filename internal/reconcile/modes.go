package reconcile

import (
	"errors"
	"strings"

	corev1 "k8s.io/api/core/v1"

	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
)

// DatabaseMode is either ExternalDatabase or SelfManagedDatabase.
type DatabaseMode interface {
	isDatabaseMode()
}

// ExternalDatabase is a user managed database. All connection fields come from the spec.
type ExternalDatabase struct {
	Host     string
	Port     string
	Name     string
	Username *corev1.SecretKeySelector
	Password *corev1.SecretKeySelector
}

// SelfManagedDatabase is a PostgreSQL Deployment owned by the Trustify resource.
// Username and Password are set only when the user supplied credential references.
type SelfManagedDatabase struct {
	PVCSize   string
	Username  *corev1.SecretKeySelector
	Password  *corev1.SecretKeySelector
	Resources *trustifyv1alpha1.ResourcesLimitSpec
}

func (ExternalDatabase) isDatabaseMode()    {}
func (SelfManagedDatabase) isDatabaseMode() {}

// HasExplicitCredentials reports whether both credential references were supplied.
func (d SelfManagedDatabase) HasExplicitCredentials() bool {
	return d.Username != nil && d.Password != nil
}

// StorageMode is either FilesystemStorage or ObjectStorage.
type StorageMode interface {
	isStorageMode()
	CompressionName() string
}

// FilesystemStorage keeps documents on a PersistentVolumeClaim.
type FilesystemStorage struct {
	PVCSize     string
	Compression trustifyv1alpha1.StorageCompression
}

// ObjectStorage keeps documents in an S3 compatible bucket.
type ObjectStorage struct {
	Bucket      string
	Region      string
	AccessKey   string
	SecretKey   string
	Compression trustifyv1alpha1.StorageCompression
}

func (FilesystemStorage) isStorageMode() {}
func (ObjectStorage) isStorageMode()     {}

func (s FilesystemStorage) CompressionName() string { return string(s.Compression) }
func (s ObjectStorage) CompressionName() string     { return string(s.Compression) }

// IdentityMode is IdentityDisabled, ExternalIdentity or EmbeddedIdentity.
type IdentityMode interface {
	isIdentityMode()
}

// IdentityDisabled turns authentication off.
type IdentityDisabled struct{}

// ExternalIdentity trusts a user managed OIDC provider.
type ExternalIdentity struct {
	ServerURL  string
	UIClientID string
	TLSSecret  string
}

// EmbeddedIdentity runs a Keycloak instance owned by the Trustify resource.
type EmbeddedIdentity struct {
	Database  DatabaseMode
	TLSSecret string
}

func (IdentityDisabled) isIdentityMode() {}
func (ExternalIdentity) isIdentityMode() {}
func (EmbeddedIdentity) isIdentityMode() {}

// NormalizeDatabase maps a DatabaseSpec onto a DatabaseMode. A nil spec is self-managed.
func NormalizeDatabase(spec *trustifyv1alpha1.DatabaseSpec) DatabaseMode {
	if spec == nil {
		return SelfManagedDatabase{}
	}
	if spec.ExternalDatabase {
		return ExternalDatabase{
			Host:     strings.TrimSpace(spec.Host),
			Port:     strings.TrimSpace(spec.Port),
			Name:     strings.TrimSpace(spec.Name),
			Username: spec.UsernameSecret,
			Password: spec.PasswordSecret,
		}
	}
	return SelfManagedDatabase{
		PVCSize:   strings.TrimSpace(spec.PVCSize),
		Username:  spec.UsernameSecret,
		Password:  spec.PasswordSecret,
		Resources: spec.Resources,
	}
}

// NormalizeStorage maps a StorageSpec onto a StorageMode. Filesystem is the default.
func NormalizeStorage(spec *trustifyv1alpha1.StorageSpec) StorageMode {
	if spec == nil {
		return FilesystemStorage{}
	}
	if spec.Type == trustifyv1alpha1.StorageStrategyS3 {
		out := ObjectStorage{Compression: spec.Compression}
		if spec.S3 != nil {
			out.Bucket = strings.TrimSpace(spec.S3.Bucket)
			out.Region = strings.TrimSpace(spec.S3.Region)
			out.AccessKey = spec.S3.AccessKey
			out.SecretKey = spec.S3.SecretKey
		}
		return out
	}
	out := FilesystemStorage{Compression: spec.Compression}
	if spec.Filesystem != nil {
		out.PVCSize = strings.TrimSpace(spec.Filesystem.PVCSize)
	}
	return out
}

// ProviderType resolves the effective provider type. The legacy externalServer
// flag is honored only when type is unset.
func ProviderType(spec *trustifyv1alpha1.OIDCSpec) trustifyv1alpha1.OIDCProviderType {
	if spec.Type != "" {
		return spec.Type
	}
	if spec.ExternalServer != nil && *spec.ExternalServer {
		return trustifyv1alpha1.OIDCProviderExternal
	}
	return trustifyv1alpha1.OIDCProviderEmbedded
}

// NormalizeIdentity maps an OIDCSpec onto an IdentityMode.
func NormalizeIdentity(spec *trustifyv1alpha1.OIDCSpec) (IdentityMode, error) {
	if spec == nil || !spec.Enabled {
		return IdentityDisabled{}, nil
	}

	switch ProviderType(spec) {
	case trustifyv1alpha1.OIDCProviderExternal:
		if spec.External == nil {
			return nil, operatorerrors.WithReason(
				operatorerrors.WrapPermanentConfig(errors.New("oidc.type is External but oidc.external is not set")),
				"ExternalOIDCMissing")
		}
		return ExternalIdentity{
			ServerURL:  strings.TrimSpace(spec.External.ServerURL),
			UIClientID: strings.TrimSpace(spec.External.UIClientID),
			TLSSecret:  strings.TrimSpace(spec.External.TLSSecret),
		}, nil
	case trustifyv1alpha1.OIDCProviderEmbedded:
		embedded := EmbeddedIdentity{Database: SelfManagedDatabase{}}
		if spec.Embedded != nil {
			embedded.Database = NormalizeDatabase(spec.Embedded.DatabaseSpec)
			embedded.TLSSecret = strings.TrimSpace(spec.Embedded.TLSSecret)
		}
		return embedded, nil
	default:
		return nil, operatorerrors.WithReason(
			operatorerrors.WrapPermanentConfig(errors.New("unsupported oidc.type "+string(spec.Type))),
			"UnsupportedOIDCType")
	}
}
