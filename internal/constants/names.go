package constants

// Resource name suffixes appended to the Trustify name.
const (
	SuffixDBSecret     = "-trustify-db-secret"
	SuffixDBPVC        = "-trustify-db-pvc"
	SuffixDBDeployment = "-trustify-db-deployment"
	SuffixDBService    = "-trustify-db-service"

	SuffixKeycloak             = "-keycloak"
	SuffixKeycloakService      = "-keycloak-service"
	SuffixKeycloakRealmImport  = "-realm-import"
	SuffixKeycloakTLSService   = "-keycloak-tls-service"
	SuffixKeycloakDBSecret     = "-keycloak-db-secret"
	SuffixKeycloakDBPVC        = "-keycloak-db-pvc"
	SuffixKeycloakDBDeployment = "-keycloak-db-deployment"
	SuffixKeycloakDBService    = "-keycloak-db-service"

	SuffixServerTLS        = "-trustify-server-tls"
	SuffixServerConfigMap  = "-trustify-server-configmap"
	SuffixServerPVC        = "-trustify-server-pvc"
	SuffixServerService    = "-trustify-server-service"
	SuffixServerDeployment = "-trustify-server-deployment"

	SuffixUIService    = "-trustify-ui-service"
	SuffixUIDeployment = "-trustify-ui-deployment"

	SuffixIngress   = "-trustify-ingress"
	SuffixHTTPRoute = "-trustify-httproute"

	// SuffixServingCert is appended to "<cr>-<purpose>" for platform issued serving certificates.
	SuffixServingCert = "-serving-cert"
)

// Container names.
const (
	ContainerNameDB     = "database"
	ContainerNameServer = "server"
	ContainerNameUI     = "ui"
)

// Database defaults shared by the Trustify and Keycloak databases.
const (
	DBSecretUsernameKey = "username"
	DBSecretPasswordKey = "password" // #nosec G101 -- secret key name, not a credential
	DBUsername          = "trustify"
	DBNameTrustify      = "trustify"
	DBNameKeycloak      = "keycloak"
	DBVendorPostgres    = "postgres"
)

// ConfigMapAuthKey is the key holding the rendered auth document.
const ConfigMapAuthKey = "auth.yaml"

// Keycloak defaults.
const (
	KeycloakRelativePath = "/auth"
)
