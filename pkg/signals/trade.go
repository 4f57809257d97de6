package signals

import (
	"github.com/bulkfin/bulkfin-go/pkg/names"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// Trade derives buy/sell/hold flags from two signal columns, typically a
// fast and a slow moving average. A buy fires on the row where the first
// signal crosses above the second, a sell on the row where it crosses back
// below, and hold marks every row where the first signal is at or above the
// second. Flags are encoded as 1 and 0. Rows where either signal is NaN
// count as below, so warm-up rows cannot fire a buy.
func Trade(p *panel.Panel, signal1, signal2 string) (*panel.Panel, error) {
	if err := p.Require(signal1, signal2); err != nil {
		return nil, err
	}
	out := p.Apply(func(f panel.Frame) panel.Frame {
		s1, _ := f.Values(signal1)
		s2, _ := f.Values(signal2)
		n := f.Len()

		above := make([]bool, n)
		for i := 0; i < n; i++ {
			above[i] = s1[i] >= s2[i]
		}

		buy := make([]float64, n)
		sell := make([]float64, n)
		hold := make([]float64, n)
		for i := 0; i < n; i++ {
			// The day before the series starts counts as above for buys
			// and below for sells, so neither can fire on the first row.
			prevForBuy, prevForSell := true, false
			if i > 0 {
				prevForBuy = above[i-1]
				prevForSell = above[i-1]
			}
			buy[i] = asFlag(above[i] && !prevForBuy)
			sell[i] = asFlag(!above[i] && prevForSell)
			hold[i] = asFlag(above[i])
		}

		return panel.FrameOf(f.Dates(),
			panel.Column{Name: names.Buy, Values: buy},
			panel.Column{Name: names.Sell, Values: sell},
			panel.Column{Name: names.Hold, Values: hold},
		)
	})
	return out.SortColumns(), nil
}

func asFlag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
