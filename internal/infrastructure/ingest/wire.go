package ingest

import "github.com/google/wire"

// ProviderSet 文档解析 ProviderSet
var ProviderSet = wire.NewSet(
	NewRegistry,
)
