package records

import "github.com/google/wire"

// ProviderSet 记录存储 ProviderSet
var ProviderSet = wire.NewSet(
	NewStore,
)
