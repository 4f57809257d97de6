// Package names defines the column catalog for the bulk datasets and the
// derived signals computed from them. The engine treats these as opaque
// string keys; they match the vendor's CSV headers exactly.
package names

// Index and metadata columns.
const (
	Ticker       = "Ticker"
	Date         = "Date"
	ReportDate   = "Report Date"
	PublishDate  = "Publish Date"
	RestatedDate = "Restated Date"
	FiscalYear   = "Fiscal Year"
	FiscalPeriod = "Fiscal Period"
	Currency     = "Currency"
	CompanyName  = "Company Name"
	IndustryID   = "IndustryId"
	MarketID     = "MarketId"
	Sector       = "Sector"
	Industry     = "Industry"
)

// Share counts reported alongside fundamentals.
const (
	SharesBasic   = "Shares (Basic)"
	SharesDiluted = "Shares (Diluted)"
)

// Income statement columns.
const (
	Revenue         = "Revenue"
	CostRevenue     = "Cost of Revenue"
	GrossProfit     = "Gross Profit"
	OperatingExp    = "Operating Expenses"
	SellingGenAdmin = "Selling, General & Administrative"
	ResearchDev     = "Research & Development"
	DeprAmor        = "Depreciation & Amortization"
	OperatingIncome = "Operating Income (Loss)"
	NonOperatingInc = "Non-Operating Income (Loss)"
	InterestExpNet  = "Interest Expense, Net"
	PretaxIncomeAdj = "Pretax Income (Loss), Adj."
	PretaxIncome    = "Pretax Income (Loss)"
	IncomeTax       = "Income Tax (Expense) Benefit, Net"
	NetIncome       = "Net Income"
	NetIncomeCommon = "Net Income (Common)"
)

// Balance sheet columns.
const (
	CashEquivStInvest = "Cash, Cash Equivalents & Short Term Investments"
	AccNotesRecv      = "Accounts & Notes Receivable"
	Inventories       = "Inventories"
	TotalCurAssets    = "Total Current Assets"
	PPENet            = "Property, Plant & Equipment, Net"
	LtInvestRecv      = "Long Term Investments & Receivables"
	OtherLtAssets     = "Other Long Term Assets"
	TotalNoncurAssets = "Total Noncurrent Assets"
	TotalAssets       = "Total Assets"
	PayablesAccruals  = "Payables & Accruals"
	StDebt            = "Short Term Debt"
	TotalCurLiab      = "Total Current Liabilities"
	LtDebt            = "Long Term Debt"
	TotalNoncurLiab   = "Total Noncurrent Liabilities"
	TotalLiabilities  = "Total Liabilities"
	ShareCapitalAdd   = "Share Capital & Additional Paid-In Capital"
	TreasuryStock     = "Treasury Stock"
	RetainedEarnings  = "Retained Earnings"
	TotalEquity       = "Total Equity"
	TotalLiabEquity   = "Total Liabilities & Equity"
)

// Cash-flow statement columns. Outflows such as Capex, DividendsPaid and
// CashRepurchaseEquity are stored as signed (usually negative) values.
const (
	NetIncomeStart       = "Net Income/Starting Line"
	NonCashItems         = "Non-Cash Items"
	ChgWorkingCapital    = "Change in Working Capital"
	NetCashOps           = "Net Cash from Operating Activities"
	Capex                = "Change in Fixed Assets & Intangibles"
	NetChgLtInvest       = "Net Change in Long Term Investment"
	NetCashAcqDivest     = "Net Cash from Acquisitions & Divestitures"
	NetCashInv           = "Net Cash from Investing Activities"
	DividendsPaid        = "Dividends Paid"
	CashRepayDebt        = "Cash from (Repayment of) Debt"
	CashRepurchaseEquity = "Cash from (Repurchase of) Equity"
	NetCashFin           = "Net Cash from Financing Activities"
	NetChgCash           = "Net Change in Cash"
)

// Share-price columns.
const (
	Open              = "Open"
	Low               = "Low"
	High              = "High"
	Close             = "Close"
	AdjClose          = "Adj. Close"
	Volume            = "Volume"
	Dividend          = "Dividend"
	SharesOutstanding = "Shares Outstanding"
)

// TotalReturn is the adjusted closing price, which accounts for both
// stock-splits and reinvestment of dividends. Relative changes of this
// column are total stock returns.
const TotalReturn = AdjClose

// Derived metric columns.
const (
	EBITDA = "EBITDA"
	FCF    = "Free Cash Flow"
	NCAV   = "Net Current Asset Value"
	NetNet = "Net-Net Working Capital"
)
