package memory

import "github.com/google/wire"

// ProviderSet 记忆追踪 ProviderSet
var ProviderSet = wire.NewSet(
	NewTracker,
)
