package rfp

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SummaryCSV renders the dashboard summary as CSV. Amounts are grouped with
// English digit separators for the finance exports.
func SummaryCSV(rows []SummaryRow) ([]byte, error) {
	printer := message.NewPrinter(language.English)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"RFP ID", "Requirement", "Delivery Location", "Deliver By", "Status", "Products", "Quotations", "Preferred Total"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.RFPID,
			row.RequirementType,
			row.DeliveryLocation,
			row.DeliveryByDate.Format("2006-01-02"),
			string(row.Status),
			strconv.Itoa(row.ProductCount),
			strconv.Itoa(row.QuotationCount),
			printer.Sprintf("%.2f", row.PreferredTotal),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
