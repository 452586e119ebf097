// Package di contains dependency injection tokens for the api context.
package di

import (
	"github.com/fd1az/venue-arbitrage/business/api/infra/rest"
	"github.com/fd1az/venue-arbitrage/internal/di"
)

// Private dependency tokens - internal to api module
var (
	Handlers = di.NewToken[*rest.Handlers]("api:handlers")
	Server   = di.NewToken[*rest.Server]("api:server")
)

// Helper functions for type-safe access
func GetHandlers(c di.ServiceRegistry) *rest.Handlers {
	return di.GetToken(c, Handlers)
}

func GetServer(c di.ServiceRegistry) *rest.Server {
	return di.GetToken(c, Server)
}
