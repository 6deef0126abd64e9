package ingest

import "github.com/google/wire"

// ProviderSet 入库流水线 ProviderSet
var ProviderSet = wire.NewSet(
	NewBuildService,
)
