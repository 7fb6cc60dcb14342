package constants

// Annotation keys used by the operator.
const (
	// AnnotationDesiredRevision records the content revision of the desired object last
	// applied by the operator. Updates are skipped while it matches.
	AnnotationDesiredRevision = "trustify.org/desired-revision"
	// AnnotationConfigRevision is set on the server pod template so configuration
	// changes roll the Deployment.
	AnnotationConfigRevision = "trustify.org/config-revision"
	// AnnotationServingCertSecretName asks the OpenShift service CA to issue a serving certificate.
	AnnotationServingCertSecretName = "service.beta.openshift.io/serving-cert-secret-name"
)
