package llm

import "github.com/google/wire"

// ProviderSet LLM ProviderSet
var ProviderSet = wire.NewSet(
	NewClient,
)
