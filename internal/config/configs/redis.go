package configs

// Redis configures the optional view cache used to short-circuit
// frequency-capped denials. An empty address disables the cache; the
// engine then checks frequency caps against the database only.
type Redis struct {
	// Addr is a host:port address. Empty means the cache is disabled.
	Addr string `env:"ADDRESS" envDefault:""`
}
