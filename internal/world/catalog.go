package world

import (
	"go.uber.org/zap"
)

// Catalog holds every pre-authored region, keyed by prototype ref. It is
// built once at startup and passed by reference to every consumer; there
// is no process-wide region registry.
type Catalog struct {
	regions      map[uint64]*Region
	defaultProto uint64
	log          *zap.Logger
}

func NewCatalog(defaultProto uint64, log *zap.Logger) *Catalog {
	return &Catalog{
		regions:      make(map[uint64]*Region),
		defaultProto: defaultProto,
		log:          log,
	}
}

func (c *Catalog) Add(r *Region) {
	c.regions[r.Proto] = r
}

// Get returns the region for proto, falling back to the default region
// when no data is registered. The server keeps running with degraded
// placement rather than failing a client's session.
func (c *Catalog) Get(proto uint64) *Region {
	if r, ok := c.regions[proto]; ok {
		return r
	}
	c.log.Warn("no data for region, falling back to default",
		zap.Uint64("region_proto", proto),
		zap.Uint64("default_proto", c.defaultProto),
	)
	return c.regions[c.defaultProto]
}

// Has reports whether region data is registered for proto.
func (c *Catalog) Has(proto uint64) bool {
	_, ok := c.regions[proto]
	return ok
}

// DefaultProto returns the configured fallback region prototype.
func (c *Catalog) DefaultProto() uint64 {
	return c.defaultProto
}

func (c *Catalog) Count() int {
	return len(c.regions)
}

// ForEach visits every registered region. Iteration order is not defined.
func (c *Catalog) ForEach(fn func(*Region)) {
	for _, r := range c.regions {
		fn(r)
	}
}
