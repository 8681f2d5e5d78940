package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/catalog"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
)

const notApplicable = "N/A"

// Calculator prices a QuoteSelection against a catalog. It has no state
// beyond the catalog and is safe for concurrent use.
type Calculator struct {
	cat *catalog.Catalog
}

// NewCalculator returns a Calculator over cat, or over the embedded catalog
// when cat is nil.
func NewCalculator(cat *catalog.Catalog) *Calculator {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Calculator{cat: cat}
}

func (c *Calculator) Catalog() *catalog.Catalog {
	return c.cat
}

// Calculate derives the quote for sel. Deep cleaning is billed hourly, so it
// never touches the matrix and returns zero amounts with IsDeepClean set.
// Missing table entries price as zero.
func (c *Calculator) Calculate(sel domain.QuoteSelection) domain.Quote {
	if sel.CleaningType == domain.CleaningDeep {
		return domain.Quote{
			BasePrice:   decimal.Zero,
			ExtrasPrice: decimal.Zero,
			Total:       decimal.Zero,
			IsDeepClean: true,
		}
	}

	base := decimal.NewFromInt(c.cat.BasePrice(sel.Frequency, sel.HomeSize))
	extras := decimal.Zero
	for _, e := range sel.Extras {
		extras = extras.Add(decimal.NewFromInt(c.cat.ExtraPrice(e)))
	}
	return domain.Quote{
		BasePrice:   base,
		ExtrasPrice: extras,
		Total:       base.Add(extras),
	}
}

// Estimate renders the price line used in notifications: a dollar total, or
// the hourly terms for deep cleaning.
func (c *Calculator) Estimate(q domain.Quote) string {
	if q.IsDeepClean {
		return c.cat.Pricing.DeepClean.Terms
	}
	return dollars(q.Total)
}

// Summarize builds the quote card shown as the wizard's final turn.
func (c *Calculator) Summarize(sel domain.QuoteSelection, q domain.Quote) domain.QuoteSummary {
	ch := c.cat.Choices
	freq := notApplicable
	if sel.Frequency != "" {
		freq = catalog.LabelFor(ch.Frequencies, string(sel.Frequency))
	}
	extras := make([]string, 0, len(sel.Extras))
	for _, e := range sel.Extras {
		if e == domain.ExtraNone {
			continue
		}
		extras = append(extras, catalog.LabelFor(ch.Extras, string(e)))
	}
	return domain.QuoteSummary{
		CleaningType: catalog.LabelFor(ch.CleaningTypes, string(sel.CleaningType)),
		Frequency:    freq,
		HomeSize:     catalog.LabelFor(ch.HomeSizes, string(sel.HomeSize)),
		Extras:       extras,
		Estimate:     c.Estimate(q),
		Quote:        q,
	}
}

// Details renders the plain-text breakdown attached to the quote email.
func (c *Calculator) Details(s domain.QuoteSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cleaning Type: %s\n", s.CleaningType)
	if s.Frequency != "" {
		fmt.Fprintf(&b, "Frequency: %s\n", s.Frequency)
	}
	fmt.Fprintf(&b, "Home Size: %s\n", s.HomeSize)
	extras := "None"
	if len(s.Extras) > 0 {
		extras = strings.Join(s.Extras, ", ")
	}
	fmt.Fprintf(&b, "Extras: %s", extras)
	if !s.IsDeepClean {
		fmt.Fprintf(&b, "\n\nBase Price: %s\nExtras Price: %s\nTotal: %s",
			dollars(s.BasePrice), dollars(s.ExtrasPrice), dollars(s.Total))
	}
	return b.String()
}

// Notification is the email payload sent when the wizard reaches its quote.
func (c *Calculator) Notification(s domain.QuoteSummary) domain.LeadNotification {
	return domain.LeadNotification{
		Name:     "Quote Request",
		Service:  s.CleaningType,
		Estimate: s.Estimate,
		Details:  c.Details(s),
	}
}

// SMSBody renders the unencoded text of the "schedule by SMS" link. Callers
// URL-encode it. An empty string means the selection has no home size yet.
func (c *Calculator) SMSBody(sel domain.QuoteSelection, q domain.Quote) string {
	if sel.HomeSize == "" {
		return ""
	}
	kind := "Regular Cleaning"
	if sel.CleaningType == domain.CleaningDeep {
		kind = "Deep Cleaning"
	}

	var b strings.Builder
	b.WriteString("Hello! I received a cleaning quote and would like to schedule.\n\n")
	fmt.Fprintf(&b, "Type: %s\n", kind)
	if sel.Frequency != "" {
		fmt.Fprintf(&b, "Frequency: %s\n", catalog.LabelFor(c.cat.Choices.Frequencies, string(sel.Frequency)))
	}
	fmt.Fprintf(&b, "Size: %s\n", catalog.LabelFor(c.cat.Choices.HomeSizes, string(sel.HomeSize)))
	if q.IsDeepClean {
		fmt.Fprintf(&b, "Price: %s", c.cat.Pricing.DeepClean.ShortTerms)
	} else {
		fmt.Fprintf(&b, "Total: %s", dollars(q.Total))
	}
	return b.String()
}

func dollars(d decimal.Decimal) string {
	return "$" + d.String()
}
