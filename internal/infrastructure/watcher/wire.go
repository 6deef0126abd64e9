package watcher

import "github.com/google/wire"

// ProviderSet 文件监听 ProviderSet
var ProviderSet = wire.NewSet(
	NewEventBus,
	DefaultWatchConfig,
	NewFileWatcher,
)
