package names

// Price signal columns.
const (
	MovAvg20  = "MAVG_20"
	MovAvg200 = "MAVG_200"
	EMA       = "EMA"
	MACD      = "MACD"
	MACDEMA   = "MACD_EMA"
)

// Trade signal columns.
const (
	Buy  = "BUY"
	Sell = "SELL"
	Hold = "HOLD"
)

// Volume signal columns.
const (
	RelVol         = "REL_VOL"
	VolumeMCap     = "VOLUME_MCAP"
	VolumeTurnover = "VOLUME_TURNOVER"
)

// Financial signal columns.
const (
	NetProfitMargin    = "NET_PROFIT_MARGIN"
	GrossProfitMargin  = "GROSS_PROFIT_MARGIN"
	RDRevenue          = "RD_REVENUE"
	RDGrossProfit      = "RD_GROSS_PROFIT"
	RORC               = "RORC"
	InterestCov        = "INTEREST_COV"
	CurrentRatio       = "CURRENT_RATIO"
	QuickRatio         = "QUICK_RATIO"
	DebtRatio          = "DEBT_RATIO"
	ROA                = "ROA"
	ROE                = "ROE"
	AssetTurnover      = "ASSET_TURNOVER"
	InventoryTurnover  = "INVENTORY_TURNOVER"
	PayoutRatio        = "PAYOUT_RATIO"
	BuybackRatio       = "BUYBACK_RATIO"
	PayoutBuybackRatio = "PAYOUT_BUYBACK_RATIO"
	AcqAssetsRatio     = "ACQ_ASSETS_RATIO"
	CapexDeprRatio     = "CAPEX_DEPR_RATIO"
	LogRevenue         = "LOG_REVENUE"
)

// Growth signal columns. The plain names are computed from TTM data, the
// YOY and QOQ variants from quarterly data.
const (
	SalesGrowth       = "SALES_GROWTH"
	SalesGrowthYOY    = "SALES_GROWTH_YOY"
	SalesGrowthQOQ    = "SALES_GROWTH_QOQ"
	EarningsGrowth    = "EARNINGS_GROWTH"
	EarningsGrowthYOY = "EARNINGS_GROWTH_YOY"
	EarningsGrowthQOQ = "EARNINGS_GROWTH_QOQ"
	FCFGrowth         = "FCF_GROWTH"
	FCFGrowthYOY      = "FCF_GROWTH_YOY"
	FCFGrowthQOQ      = "FCF_GROWTH_QOQ"
	AssetsGrowth      = "ASSETS_GROWTH"
	AssetsGrowthYOY   = "ASSETS_GROWTH_YOY"
	AssetsGrowthQOQ   = "ASSETS_GROWTH_QOQ"
)

// Valuation signal columns.
const (
	PSales        = "PSALES"
	PE            = "PE"
	PFCF          = "PFCF"
	PBook         = "PBOOK"
	PNCAV         = "P_NCAV"
	PNetNet       = "P_NETNET"
	PCash         = "P_CASH"
	EarningsYield = "EARNINGS_YIELD"
	FCFYield      = "FCF_YIELD"
	DivYield      = "DIV_YIELD"
	MarketCap     = "MARKET_CAP"
)
