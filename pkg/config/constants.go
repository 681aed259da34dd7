package config

const (
	EnvPrefix = "CONSTRUPRO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CONSTRUPRO_DB_DSN"
	EnvDBHost = "CONSTRUPRO_DB_HOST"
	EnvDBUser = "CONSTRUPRO_DB_USER"
	EnvDBName = "CONSTRUPRO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
