package config

// Defaults for a local game on one machine.
const (
	defaultName      = "player"
	defaultKeysDir   = "./keys"
	defaultTransport = TransportTCP
	defaultListen    = ":7878"
	defaultHTTPAddr  = ":8080"
	defaultMaxFrame  = 1 << 20

	defaultLogLevel      = "info"
	defaultLogToConsole  = true
	defaultLogMaxSize    = 20 // MB
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 14 // days
	defaultLogCompress   = true
	defaultGnarkLogLevel = "warn"
)
