// Package bulk downloads the vendor's bulk CSV datasets and loads them as
// panels. Fundamentals and share prices become grouped panels keyed by
// ticker; the reference listings (companies, industries, markets) load as
// plain tables. Files live under the configured download directory and are
// re-downloaded when older than the configured refresh window.
package bulk

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bulkfin/bulkfin-go/pkg/errs"
	"github.com/bulkfin/bulkfin-go/pkg/names"
)

// Dataset describes one bulk dataset family.
type Dataset struct {
	// Name as it appears in download URLs and filenames, e.g. "income"
	// or "income-banks".
	Name string
	// Variants accepted by the server. Empty when the dataset has none.
	Variants []string
	// TakesMarket marks datasets published per market.
	TakesMarket bool
	// DateColumn is the column used as the panel's date axis. Empty for
	// reference tables, which load as a Table instead of a Panel.
	DateColumn string
}

// Fundamentals come in statement-trailing windows; share prices either as
// the full daily history or just the latest row per ticker.
var (
	fundamentalVariants = []string{"annual", "quarterly", "ttm"}
	sharePriceVariants  = []string{"daily", "latest"}
)

var catalog = []Dataset{
	{Name: "income", Variants: fundamentalVariants, TakesMarket: true, DateColumn: names.ReportDate},
	{Name: "income-banks", Variants: fundamentalVariants, TakesMarket: true, DateColumn: names.ReportDate},
	{Name: "income-insurance", Variants: fundamentalVariants, TakesMarket: true, DateColumn: names.ReportDate},
	{Name: "balance", Variants: fundamentalVariants, TakesMarket: true, DateColumn: names.ReportDate},
	{Name: "balance-banks", Variants: fundamentalVariants, TakesMarket: true, DateColumn: names.ReportDate},
	{Name: "balance-insurance", Variants: fundamentalVariants, TakesMarket: true, DateColumn: names.ReportDate},
	{Name: "cashflow", Variants: fundamentalVariants, TakesMarket: true, DateColumn: names.ReportDate},
	{Name: "cashflow-banks", Variants: fundamentalVariants, TakesMarket: true, DateColumn: names.ReportDate},
	{Name: "cashflow-insurance", Variants: fundamentalVariants, TakesMarket: true, DateColumn: names.ReportDate},
	{Name: "shareprices", Variants: sharePriceVariants, TakesMarket: true, DateColumn: names.Date},
	{Name: "companies", TakesMarket: true},
	{Name: "industries"},
	{Name: "markets"},
}

// Datasets returns the catalog.
func Datasets() []Dataset {
	out := make([]Dataset, len(catalog))
	copy(out, catalog)
	return out
}

// Resolve looks a dataset up by name.
func Resolve(name string) (Dataset, error) {
	for _, d := range catalog {
		if d.Name == name {
			return d, nil
		}
	}
	return Dataset{}, errs.InvalidArgumentf("unknown dataset %q", name)
}

// Dated reports whether the dataset loads as a panel with a date axis.
func (d Dataset) Dated() bool { return d.DateColumn != "" }

func (d Dataset) validate(variant, market string) error {
	switch {
	case len(d.Variants) == 0 && variant != "":
		return errs.InvalidArgumentf("dataset %q takes no variant, got %q", d.Name, variant)
	case len(d.Variants) > 0 && !contains(d.Variants, variant):
		return errs.InvalidArgumentf("dataset %q has no variant %q, valid: %s",
			d.Name, variant, strings.Join(d.Variants, ", "))
	case d.TakesMarket && market == "":
		return errs.InvalidArgumentf("dataset %q needs a market", d.Name)
	case !d.TakesMarket && market != "":
		return errs.InvalidArgumentf("dataset %q takes no market, got %q", d.Name, market)
	}
	return nil
}

// Filename composes the on-disk CSV name: market, dataset and variant
// joined with dashes, absent parts omitted.
func (d Dataset) Filename(variant, market string) string {
	parts := make([]string, 0, 3)
	if market != "" {
		parts = append(parts, market)
	}
	parts = append(parts, d.Name)
	if variant != "" {
		parts = append(parts, variant)
	}
	return strings.Join(parts, "-") + ".csv"
}

// Info writes a human-readable dataset listing.
func Info(w io.Writer) {
	caser := cases.Title(language.English)
	for _, d := range catalog {
		fmt.Fprintln(w, caser.String(strings.ReplaceAll(d.Name, "-", " ")))
		if len(d.Variants) > 0 {
			fmt.Fprintf(w, "  variants: %s\n", strings.Join(d.Variants, ", "))
		}
		if d.TakesMarket {
			fmt.Fprintln(w, "  published per market")
		}
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
