// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/swapdesk/business/pricing/app"
	"github.com/fd1az/swapdesk/internal/di"
)

// Public service tokens.
var (
	PricingService = di.NewToken[*app.PricingService]("pricing.PricingService")
)

// Private dependency tokens.
var (
	PriceFeed   = di.NewToken[app.PriceFeed]("pricing:priceFeed")
	DEXProvider = di.NewToken[app.DEXProvider]("pricing:dexProvider")
)

func GetPricingService(c di.ServiceRegistry) *app.PricingService {
	return di.GetToken(c, PricingService)
}

func GetPriceFeed(c di.ServiceRegistry) app.PriceFeed {
	return di.GetToken(c, PriceFeed)
}

func GetDEXProvider(c di.ServiceRegistry) app.DEXProvider {
	return di.GetToken(c, DEXProvider)
}
