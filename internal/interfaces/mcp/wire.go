package mcp

import "github.com/google/wire"

// ProviderSet MCP 服务 ProviderSet
var ProviderSet = wire.NewSet(
	NewServer,
)
