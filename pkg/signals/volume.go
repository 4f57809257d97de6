package signals

import (
	"math"

	"github.com/bulkfin/bulkfin-go/internal/floats"
	"github.com/bulkfin/bulkfin-go/pkg/align"
	"github.com/bulkfin/bulkfin-go/pkg/derived"
	"github.com/bulkfin/bulkfin-go/pkg/freq"
	"github.com/bulkfin/bulkfin-go/pkg/names"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// VolumeOptions controls the trading-volume signal assembler.
type VolumeOptions struct {
	// Window is the rolling mean window in trading days. Zero means 20.
	Window int

	// SharesColumn picks the share-count used for turnover. It must be
	// names.SharesBasic or names.SharesDiluted; empty means basic.
	SharesColumn string

	// Offset shifts share-count report dates by a publish lag before they
	// are spread onto the price grid.
	Offset freq.Duration

	// FillMethod fills share-counts between report dates. The zero value
	// forward-fills.
	FillMethod align.Method
}

// Volume computes trading-volume signals on the price grid: the relative
// volume (log of volume over its rolling mean), the rolling mean dollar
// volume, and the rolling mean turnover of the share float. Share-counts
// come from report-dated statements and are spread onto the price grid
// before use.
func Volume(prices, shares *panel.Panel, opts VolumeOptions) (*panel.Panel, error) {
	if err := prices.Require(names.Close, names.Volume); err != nil {
		return nil, err
	}
	window := opts.Window
	if window == 0 {
		window = 20
	}
	sharesCol := opts.SharesColumn
	if sharesCol == "" {
		sharesCol = names.SharesBasic
	}

	shareCounts, err := derived.Shares(shares, sharesCol)
	if err != nil {
		return nil, err
	}
	shareCounts, err = shiftIfSet(shareCounts, opts.Offset)
	if err != nil {
		return nil, err
	}
	sharesDaily, err := onPriceDates(shareCounts, prices, opts.FillMethod)
	if err != nil {
		return nil, err
	}

	out := make([]panel.Group, 0, len(prices.Groups()))
	for _, g := range prices.Groups() {
		volume, _ := g.Values(names.Volume)
		closes, _ := g.Values(names.Close)
		countFrame, _ := sharesDaily.Group(g.ID)
		counts, _ := countFrame.Values(sharesCol)
		n := g.Len()

		relVol := floats.RollingMean(volume, window)
		mcap := make([]float64, n)
		turnover := make([]float64, n)
		for i := 0; i < n; i++ {
			relVol[i] = math.Log(volume[i] / relVol[i])
			mcap[i] = volume[i] * closes[i]
			turnover[i] = volume[i] / counts[i]
		}

		out = append(out, panel.Group{ID: g.ID, Frame: panel.FrameOf(g.Dates(),
			panel.Column{Name: names.RelVol, Values: relVol},
			panel.Column{Name: names.VolumeMCap, Values: floats.RollingMean(mcap, window)},
			panel.Column{Name: names.VolumeTurnover, Values: floats.RollingMean(turnover, window)},
		)})
	}
	result, err := panel.New(prices.EntityKey(), out...)
	if err != nil {
		return nil, err
	}
	return result.SortColumns(), nil
}
