// Package interfaces 对外接口层（HTTP + MCP）
package interfaces

import (
	"github.com/google/wire"

	"github.com/toheart/courseagent/internal/interfaces/http"
	"github.com/toheart/courseagent/internal/interfaces/http/handler"
	"github.com/toheart/courseagent/internal/interfaces/mcp"
)

// ProviderSet Interfaces 层总 ProviderSet
var ProviderSet = wire.NewSet(
	handler.ProviderSet,
	http.ProviderSet,
	mcp.ProviderSet,
)
