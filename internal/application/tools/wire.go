package tools

import "github.com/google/wire"

// ProviderSet 工具集 ProviderSet
var ProviderSet = wire.NewSet(
	NewCalculator,
	NewDatetime,
	NewFileWriter,
	NewMemorySearch,
	NewMindmap,
	ProvideSearcher,
	NewWebSearch,
	NewRegistry,
)
