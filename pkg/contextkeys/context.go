package contextkeys

// Custom type to avoid collisions with other context values.
type contextKey string

// DBContextKey is the key under which the *gorm.DB handle (connection pool or
// an injected test transaction) travels through the request context.
const DBContextKey = contextKey("db")
