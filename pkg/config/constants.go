package config

const (
	// EnvPrefix is empty because every field names its variable explicitly.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SHELFWATCH_DB_DSN"
	EnvDBHost = "SHELFWATCH_DB_HOST"
	EnvDBUser = "SHELFWATCH_DB_USER"
	EnvDBName = "SHELFWATCH_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
