package cache

// SQL schemas for cache tables.
// All cache tables use "cache_key" as the primary key column for consistency.

// GoogleBooksCacheSchema defines the schema for Google Books volume cache.
const GoogleBooksCacheSchema = `
CREATE TABLE IF NOT EXISTS googlebooks_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_googlebooks_cached_at ON googlebooks_cache(cached_at);
`

// OpenLibraryCacheSchema defines the schema for OpenLibrary book cache.
const OpenLibraryCacheSchema = `
CREATE TABLE IF NOT EXISTS openlibrary_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_openlibrary_cached_at ON openlibrary_cache(cached_at);
`

// IMSLPCacheSchema defines the schema for IMSLP score search cache.
const IMSLPCacheSchema = `
CREATE TABLE IF NOT EXISTS imslp_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_imslp_cached_at ON imslp_cache(cached_at);
`

// CoverCacheSchema defines the schema for cover validation results.
const CoverCacheSchema = `
CREATE TABLE IF NOT EXISTS cover_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_cover_cached_at ON cover_cache(cached_at);
`

// AllCacheSchemas lists every cache table schema for initialization.
var AllCacheSchemas = []string{
	GoogleBooksCacheSchema,
	OpenLibraryCacheSchema,
	IMSLPCacheSchema,
	CoverCacheSchema,
}

// ValidCacheTableNames is the whitelist used to guard dynamic table names
// in queries.
var ValidCacheTableNames = map[string]bool{
	"googlebooks_cache": true,
	"openlibrary_cache": true,
	"imslp_cache":       true,
	"cover_cache":       true,
}
