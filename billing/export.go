package billing

import (
	"fmt"
	"strings"
)

// csvHeader is consumed by downstream accounting tooling; both the column
// order and the exact byte sequence are load-bearing.
const csvHeader = "מנהל קמפיינים,לקוח,חברה,פלטפורמות,תעריף,תקופות עבודה,ימי עבודה,תשלום,סטטוס\n"

// ExportCSV renders payout statements in the export format: one row per
// client-detail entry, work periods joined by "; ". The format is built by
// hand rather than encoding/csv because consumers depend on the exact
// quoting of the historical export (amount columns are quoted with a shekel
// prefix, platform and day counts are bare).
func ExportCSV(statements []Statement) string {
	var b strings.Builder
	b.WriteString(csvHeader)

	for _, st := range statements {
		for _, d := range st.ClientDetails {
			periods := make([]string, len(d.Periods))
			for i, p := range d.Periods {
				periods[i] = fmt.Sprintf("%s-%s (%d ימים)", p.Start, p.End, p.Days)
			}
			fmt.Fprintf(&b, "\"%s\",\"%s\",\"%s\",%d,\"₪%s\",\"%s\",%d,\"₪%s\",\"%s\"\n",
				st.Manager.Name,
				d.Name,
				d.Company,
				d.Platforms,
				d.Rate.String(),
				strings.Join(periods, "; "),
				d.WorkingDays,
				d.Payment.StringFixed(2),
				d.Status,
			)
		}
	}
	return b.String()
}

// ExportFilename names the download for a given month.
func ExportFilename(month Month) string {
	return fmt.Sprintf("payment-calculation-%s.csv", month.Key)
}
