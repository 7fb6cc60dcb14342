package constants

// Default images used when neither the settings file nor RELATED_IMAGE_* override them.
const (
	DefaultDBImage     = "quay.io/sclorg/postgresql-15-c9s:latest"
	DefaultServerImage = "ghcr.io/trustification/trustd:latest"
	DefaultUIImage     = "ghcr.io/trustification/trustify-ui:latest"
)
