package workspace

import "github.com/google/wire"

// ProviderSet 工作区存储 ProviderSet
var ProviderSet = wire.NewSet(
	NewStore,
)
