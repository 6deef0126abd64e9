package session

import (
	"github.com/google/wire"

	"github.com/toheart/courseagent/internal/infrastructure/llm"
)

// ProviderSet 会话编排 ProviderSet
var ProviderSet = wire.NewSet(
	wire.Bind(new(ChatClient), new(*llm.Client)),
	NewRouter,
	NewTutor,
	NewQuizMaster,
	NewGrader,
	NewOrchestrator,
)
