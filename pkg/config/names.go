package config

// EnvPrefix scopes every SIMRYO environment variable.
const EnvPrefix = "SIMRYO"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	PaymentProviderStripe = "stripe"
	PaymentProviderSquare = "square"
)

const (
	EnvDBDSN  = "SIMRYO_DB_DSN"
	EnvDBHost = "SIMRYO_DB_HOST"
	EnvDBUser = "SIMRYO_DB_USER"
	EnvDBName = "SIMRYO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
