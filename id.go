package custody

import "github.com/xraph/custody/id"

// ID is the identifier type carried by events and history references.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
