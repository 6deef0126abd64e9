package infrastructure

import (
	"github.com/google/wire"

	"github.com/toheart/courseagent/internal/infrastructure/config"
	"github.com/toheart/courseagent/internal/infrastructure/embedding"
	"github.com/toheart/courseagent/internal/infrastructure/ingest"
	"github.com/toheart/courseagent/internal/infrastructure/llm"
	"github.com/toheart/courseagent/internal/infrastructure/records"
	"github.com/toheart/courseagent/internal/infrastructure/storage"
	"github.com/toheart/courseagent/internal/infrastructure/vector"
	"github.com/toheart/courseagent/internal/infrastructure/watcher"
	"github.com/toheart/courseagent/internal/infrastructure/websocket"
	"github.com/toheart/courseagent/internal/infrastructure/workspace"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	embedding.ProviderSet,
	llm.ProviderSet,
	ingest.ProviderSet,
	vector.ProviderSet,
	workspace.ProviderSet,
	records.ProviderSet,
	storage.ProviderSet,
	watcher.ProviderSet,
	websocket.ProviderSet,
)
