package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"

	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/constants"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
)

// Resources holds default requests and limits for one container.
type Resources struct {
	CPURequest    string `yaml:"cpuRequest"`
	CPULimit      string `yaml:"cpuLimit"`
	MemoryRequest string `yaml:"memoryRequest"`
	MemoryLimit   string `yaml:"memoryLimit"`
}

// ResourceDefaults groups container defaults by component.
type ResourceDefaults struct {
	DB       Resources `yaml:"db"`
	Server   Resources `yaml:"server"`
	UI       Resources `yaml:"ui"`
	Keycloak Resources `yaml:"keycloak"`
}

// KeycloakSettings configures the realm provisioned in the embedded identity provider.
type KeycloakSettings struct {
	Realm          string `yaml:"realm"`
	UIClientID     string `yaml:"uiClientId"`
	ServerClientID string `yaml:"serverClientId"`
}

// Settings is the operator settings file. Every field has a default.
type Settings struct {
	DBImage         string            `yaml:"dbImage"`
	ServerImage     string            `yaml:"serverImage"`
	UIImage         string            `yaml:"uiImage"`
	ImagePullPolicy corev1.PullPolicy `yaml:"imagePullPolicy"`
	DBPVCSize       string            `yaml:"dbPvcSize"`
	ServerPVCSize   string            `yaml:"serverPvcSize"`
	Resources       ResourceDefaults  `yaml:"resources"`
	Keycloak        KeycloakSettings  `yaml:"keycloak"`
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() *Settings {
	return &Settings{
		DBImage:         constants.DefaultDBImage,
		ServerImage:     constants.DefaultServerImage,
		UIImage:         constants.DefaultUIImage,
		ImagePullPolicy: corev1.PullIfNotPresent,
		DBPVCSize:       "10Gi",
		ServerPVCSize:   "10Gi",
		Resources: ResourceDefaults{
			DB: Resources{
				CPURequest:    "50m",
				CPULimit:      "500m",
				MemoryRequest: "64Mi",
				MemoryLimit:   "512Mi",
			},
			Server: Resources{
				CPURequest:    "500m",
				CPULimit:      "2",
				MemoryRequest: "512Mi",
				MemoryLimit:   "4Gi",
			},
			UI: Resources{
				CPURequest:    "50m",
				CPULimit:      "250m",
				MemoryRequest: "64Mi",
				MemoryLimit:   "256Mi",
			},
			Keycloak: Resources{
				CPURequest:    "250m",
				CPULimit:      "1",
				MemoryRequest: "512Mi",
				MemoryLimit:   "1Gi",
			},
		},
		Keycloak: KeycloakSettings{
			Realm:          "trustify",
			UIClientID:     "frontend",
			ServerClientID: "backend",
		},
	}
}

// LoadSettings reads the settings file at path over the defaults, applies the
// RELATED_IMAGE_* overrides from getenv and validates the result. An empty path
// yields the defaults.
func LoadSettings(path string, getenv func(string) string) (*Settings, error) {
	settings := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path is an operator flag
		if err != nil {
			return nil, fmt.Errorf("failed to read operator settings %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse operator settings %q: %w", path, err)
		}
	}

	if getenv != nil {
		overrideString(&settings.DBImage, getenv(constants.EnvRelatedImageDB))
		overrideString(&settings.ServerImage, getenv(constants.EnvRelatedImageServer))
		overrideString(&settings.UIImage, getenv(constants.EnvRelatedImageUI))
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks image references, quantities and the pull policy.
func (s *Settings) Validate() error {
	for field, image := range map[string]string{
		"dbImage":     s.DBImage,
		"serverImage": s.ServerImage,
		"uiImage":     s.UIImage,
	} {
		if _, err := name.ParseReference(image); err != nil {
			return fmt.Errorf("invalid %s %q: %w", field, image, err)
		}
	}

	switch s.ImagePullPolicy {
	case corev1.PullAlways, corev1.PullIfNotPresent, corev1.PullNever:
	default:
		return fmt.Errorf("invalid imagePullPolicy %q", s.ImagePullPolicy)
	}

	for field, size := range map[string]string{"dbPvcSize": s.DBPVCSize, "serverPvcSize": s.ServerPVCSize} {
		if _, err := resource.ParseQuantity(size); err != nil {
			return fmt.Errorf("invalid %s %q: %w", field, size, err)
		}
	}

	for component, r := range map[string]Resources{
		"db":       s.Resources.DB,
		"server":   s.Resources.Server,
		"ui":       s.Resources.UI,
		"keycloak": s.Resources.Keycloak,
	} {
		if _, err := Requirements(r, nil); err != nil {
			return fmt.Errorf("invalid %s resources: %w", component, err)
		}
	}

	if s.Keycloak.Realm == "" || s.Keycloak.UIClientID == "" || s.Keycloak.ServerClientID == "" {
		return fmt.Errorf("keycloak realm and client ids must not be empty")
	}
	return nil
}

// Requirements merges the Trustify resource overrides onto the defaults. An
// unparsable override is a configuration error.
func Requirements(defaults Resources, override *trustifyv1alpha1.ResourcesLimitSpec) (corev1.ResourceRequirements, error) {
	r := defaults
	if override != nil {
		overrideString(&r.CPURequest, override.CPURequest)
		overrideString(&r.CPULimit, override.CPULimit)
		overrideString(&r.MemoryRequest, override.MemoryRequest)
		overrideString(&r.MemoryLimit, override.MemoryLimit)
	}

	out := corev1.ResourceRequirements{}
	var err error
	if out.Requests, err = resourceList(r.CPURequest, r.MemoryRequest); err != nil {
		return corev1.ResourceRequirements{}, err
	}
	if out.Limits, err = resourceList(r.CPULimit, r.MemoryLimit); err != nil {
		return corev1.ResourceRequirements{}, err
	}
	return out, nil
}

func resourceList(cpu, memory string) (corev1.ResourceList, error) {
	list := corev1.ResourceList{}
	if cpu != "" {
		q, err := resource.ParseQuantity(cpu)
		if err != nil {
			return nil, operatorerrors.WrapPermanentConfig(fmt.Errorf("invalid cpu quantity %q: %w", cpu, err))
		}
		list[corev1.ResourceCPU] = q
	}
	if memory != "" {
		q, err := resource.ParseQuantity(memory)
		if err != nil {
			return nil, operatorerrors.WrapPermanentConfig(fmt.Errorf("invalid memory quantity %q: %w", memory, err))
		}
		list[corev1.ResourceMemory] = q
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list, nil
}

func overrideString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}
