package constants

// Mount paths inside the server container.
const (
	PathServerData    = "/opt/trustify"
	PathServerStorage = "/opt/trustify/storage"
	PathServerTLS     = "/opt/trustify/tls-server"
	PathOIDCTLS       = "/opt/trustify/oidc-tls"
	PathAuthDocument  = "/etc/config/auth.yaml"
	PathServiceCA     = "/run/secrets/kubernetes.io/serviceaccount/service-ca.crt"
	PathPostgresData  = "/var/lib/pgsql/data"

	FileTLSCertificate = "tls.crt"
	FileTLSPrivateKey  = "tls.key"
)

// Volume names used by the server pod.
const (
	VolumeServerTLS  = "tls-server"
	VolumeServerData = "trustify-pvol"
	VolumeAuth       = "auth-pvol"
	VolumeOIDCTLS    = "oidc-tls"
	VolumeDBData     = "db-pvol"
)
