// Package receipt renders a basket as a plain-text summary for printing or sharing.
package receipt

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/chandanbounteous/goldscanner/internal/basket"
)

// Formatter renders money and weights for one locale and currency.
type Formatter struct {
	printer  *message.Printer
	currency string
}

// NewFormatter parses locale as a BCP 47 tag; an empty locale means English.
func NewFormatter(locale, currency string) (*Formatter, error) {
	tag := language.English
	if strings.TrimSpace(locale) != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse receipt locale %q: %w", locale, err)
		}
		tag = parsed
	}
	return &Formatter{printer: message.NewPrinter(tag), currency: currency}, nil
}

// Money formats v with two decimals and digit grouping, prefixed by the currency.
func (f *Formatter) Money(v float64) string {
	return f.printer.Sprintf("%s %.2f", f.currency, v)
}

func (f *Formatter) grams(v float64) string {
	return f.printer.Sprintf("%.2f g", v)
}

// Write renders d to w.
func (f *Formatter) Write(w io.Writer, d basket.Detail) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Basket #%d (%s)\n", d.Basket.ID, d.Basket.Status)
	fmt.Fprintf(&b, "Customer: %s\n", d.Customer.Name)
	if d.Customer.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", d.Customer.Phone)
	}
	fmt.Fprintf(&b, "Gold rate (24K per tola): %s\n", f.Money(d.GoldRate))
	b.WriteString("\n")

	if len(d.Lines) == 0 {
		b.WriteString("No articles.\n")
	}
	for i, l := range d.Lines {
		fmt.Fprintf(&b, "%d. %s  %dK  net %s  total %s\n", i+1, l.ArticleCode, l.Karat, f.grams(l.NetWeight), f.grams(l.TotalWeight))
		fmt.Fprintf(&b, "   gold %s  making %s  tax %s\n", f.Money(l.Cost), f.Money(l.MakingCharge), f.Money(l.LuxuryTax))
		if l.AddOnCost > 0 {
			fmt.Fprintf(&b, "   add-on %s\n", f.Money(l.AddOnCost))
		}
		fmt.Fprintf(&b, "   price %s\n", f.Money(l.FinalCost))
	}
	b.WriteString("\n")

	rows := [][2]string{
		{"Old gold credit", f.Money(d.Basket.OldGoldItemCost)},
		{"Extra discount", f.Money(d.Basket.ExtraDiscount)},
		{"Pre-tax amount", f.Money(d.Totals.PreTaxAmount)},
		{"Luxury tax", f.Money(d.Totals.LuxuryTax)},
		{"Post-tax amount", f.Money(d.Totals.PostTaxAmount)},
		{"Add-on cost", f.Money(d.Totals.TotalAddOnCost)},
		{"Total", f.Money(d.Totals.TotalAmount)},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%-16s %s\n", r[0]+":", r[1])
	}

	_, err := io.WriteString(w, b.String())
	return err
}
