package constants

// Ports used by managed workloads.
const (
	PortHTTP           int32 = 8080
	PortHTTPS          int32 = 8443
	PortInfrastructure int32 = 9010
	PortPostgres       int32 = 5432

	PortNameHTTP           = "http"
	PortNameHTTPS          = "https"
	PortNameInfrastructure = "infra"
	PortNamePostgres       = "postgres"
)
