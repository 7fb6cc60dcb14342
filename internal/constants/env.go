package constants

// Environment variables read by the operator process.
const (
	EnvRelatedImageDB     = "RELATED_IMAGE_DB"
	EnvRelatedImageServer = "RELATED_IMAGE_SERVER"
	EnvRelatedImageUI     = "RELATED_IMAGE_UI"
	EnvOperatorVersion    = "OPERATOR_VERSION"
)
