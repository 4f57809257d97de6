package signals

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"github.com/bulkfin/bulkfin-go/internal/floats"
	"github.com/bulkfin/bulkfin-go/pkg/names"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

const (
	mavgShortPeriod = 20
	mavgLongPeriod  = 200
	emaPeriod       = 20

	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
)

// Price computes trend indicators from closing share-prices: 20 and 200 day
// simple moving averages, a 20 day exponential moving average, and the MACD
// line with its signal line. Indicator warm-up rows are NaN so every output
// column keeps the input date axis.
func Price(prices *panel.Panel) (*panel.Panel, error) {
	if err := prices.Require(names.Close); err != nil {
		return nil, err
	}
	out := prices.Apply(func(f panel.Frame) panel.Frame {
		closes, _ := f.Values(names.Close)
		macdLine, macdSignal := macdSeries(closes)
		return panel.FrameOf(f.Dates(),
			panel.Column{Name: names.MovAvg20, Values: smaSeries(closes, mavgShortPeriod)},
			panel.Column{Name: names.MovAvg200, Values: smaSeries(closes, mavgLongPeriod)},
			panel.Column{Name: names.EMA, Values: emaSeries(closes, emaPeriod)},
			panel.Column{Name: names.MACD, Values: macdLine},
			panel.Column{Name: names.MACDEMA, Values: macdSignal},
		)
	})
	return out.SortColumns(), nil
}

func smaSeries(prices []float64, period int) []float64 {
	if len(prices) < period {
		return floats.NaNs(len(prices))
	}
	sma := trend.NewSmaWithPeriod[float64](period)
	out := helper.ChanToSlice(sma.Compute(helper.SliceToChan(prices)))
	return leftPad(out, len(prices))
}

func emaSeries(prices []float64, period int) []float64 {
	if len(prices) < period {
		return floats.NaNs(len(prices))
	}
	ema := trend.NewEmaWithPeriod[float64](period)
	out := helper.ChanToSlice(ema.Compute(helper.SliceToChan(prices)))
	return leftPad(out, len(prices))
}

// macdSeries returns the MACD line and its signal line. Both outputs of the
// indicator are synchronized to the slower warm-up, so they share one pad.
func macdSeries(prices []float64) ([]float64, []float64) {
	if len(prices) < macdSlowPeriod+macdSignalPeriod {
		return floats.NaNs(len(prices)), floats.NaNs(len(prices))
	}
	macd := trend.NewMacdWithPeriod[float64](macdFastPeriod, macdSlowPeriod, macdSignalPeriod)
	lineCh, signalCh := macd.Compute(helper.SliceToChan(prices))
	line := helper.ChanToSlice(lineCh)
	signal := helper.ChanToSlice(signalCh)
	return leftPad(line, len(prices)), leftPad(signal, len(prices))
}
