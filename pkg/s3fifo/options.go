package s3fifo

// config holds configuration for a Cache.
type config struct {
	size       int
	smallRatio int
}

func defaultConfig() *config {
	return &config{
		size:       16384,
		smallRatio: defaultSmallRatio,
	}
}

// Option configures a Cache.
type Option func(*config)

// Size sets the maximum number of entries. Default is 16384.
// A size of 0 or less yields a cache that stores nothing.
func Size(n int) Option {
	return func(c *config) {
		c.size = n
	}
}

// SmallRatio sets the small queue size as per-mille of capacity.
// Values outside [0, 1000] are ignored. Default is 247.
func SmallRatio(perMille int) Option {
	return func(c *config) {
		if perMille >= 0 && perMille <= 1000 {
			c.smallRatio = perMille
		}
	}
}
