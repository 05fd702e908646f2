// Package di contains dependency injection tokens for the swap context.
package di

import (
	"github.com/fd1az/swapdesk/business/swap/app"
	"github.com/fd1az/swapdesk/business/swap/infra/kvstore"
	"github.com/fd1az/swapdesk/business/swap/infra/route"
	"github.com/fd1az/swapdesk/internal/di"
)

// Public service tokens.
var (
	Converter = di.NewToken[*app.Converter]("swap.Converter")
	Refresher = di.NewToken[*app.Refresher]("swap.Refresher")
)

// Private dependency tokens.
var (
	Store     = di.NewToken[*kvstore.Store]("swap:store")
	Navigator = di.NewToken[*route.Navigator]("swap:navigator")
	Reporter  = di.NewToken[app.Reporter]("swap:reporter")
)

func GetConverter(c di.ServiceRegistry) *app.Converter {
	return di.GetToken(c, Converter)
}

func GetRefresher(c di.ServiceRegistry) *app.Refresher {
	return di.GetToken(c, Refresher)
}

func GetStore(c di.ServiceRegistry) *kvstore.Store {
	return di.GetToken(c, Store)
}

func GetNavigator(c di.ServiceRegistry) *route.Navigator {
	return di.GetToken(c, Navigator)
}
