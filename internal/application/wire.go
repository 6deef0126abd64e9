package application

import (
	"github.com/google/wire"

	"github.com/toheart/courseagent/internal/application/ingest"
	"github.com/toheart/courseagent/internal/application/memory"
	"github.com/toheart/courseagent/internal/application/rag"
	"github.com/toheart/courseagent/internal/application/session"
	"github.com/toheart/courseagent/internal/application/tools"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	ingest.ProviderSet,
	rag.ProviderSet,
	memory.ProviderSet,
	tools.ProviderSet,
	session.ProviderSet,
)
