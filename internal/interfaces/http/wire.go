package http

import "github.com/google/wire"

// ProviderSet HTTP 服务 ProviderSet
var ProviderSet = wire.NewSet(
	NewServer,
)
