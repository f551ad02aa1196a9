package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// BRIGHTSTAY_* names so the prefix stays informational.
const EnvPrefix = "brightstay"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "BRIGHTSTAY_DB_DSN"
	EnvDBHost = "BRIGHTSTAY_DB_HOST"
	EnvDBUser = "BRIGHTSTAY_DB_USER"
	EnvDBName = "BRIGHTSTAY_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
