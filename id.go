package rating

import "github.com/xraph/rating/id"

// ID is the primary identifier type for all Rating entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
