package config

// EnvPrefix is handed to envconfig; every variable below is spelled out in
// full through envconfig tags so the prefix only matters for unnamed fields.
const EnvPrefix = "SITESTOCK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv  = "SITESTOCK_APP_ENV"
	EnvPort    = "SITESTOCK_APP_PORT"
	EnvDBDSN   = "SITESTOCK_DB_DSN"
	EnvDBHost  = "SITESTOCK_DB_HOST"
	EnvDBUser  = "SITESTOCK_DB_USER"
	EnvDBName  = "SITESTOCK_DB_NAME"
	EnvDBDrv   = "SITESTOCK_DB_DRIVER"
	EnvRedis   = "SITESTOCK_REDIS_URL"
	EnvBackend = "SITESTOCK_STORAGE_BACKEND"
	EnvBlob    = "SITESTOCK_STORAGE_DOCUMENT_BLOB"
	EnvMinCols = "SITESTOCK_STOCK_MIN_COLUMNS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
