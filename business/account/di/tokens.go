// Package di contains dependency injection tokens for the account context.
package di

import (
	"github.com/fd1az/swapdesk/business/account/app"
	"github.com/fd1az/swapdesk/internal/di"
)

var (
	BalanceService = di.NewToken[*app.BalanceService]("account.BalanceService")
)

var (
	WalletReader   = di.NewToken[app.WalletReader]("account:walletReader")
	ExchangeReader = di.NewToken[app.ExchangeReader]("account:exchangeReader")
)

func GetBalanceService(c di.ServiceRegistry) *app.BalanceService {
	return di.GetToken(c, BalanceService)
}
