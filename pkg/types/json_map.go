package types

// JSONMap holds schemaless metadata persisted through GORM's JSON serializer.
type JSONMap map[string]any
