package render

import (
	"encoding/csv"
	"io"

	"esnafdefter/backend/internal/domain"
)

var csvHeader = []string{"section", "title", "label", "date", "kind", "amount", "description"}

// CSV writes one record per section and one per entry row. Summary figures
// are emitted as rows whose kind is the figure name.
func CSV(w io.Writer, report domain.Report, opts Options) error {
	out := csv.NewWriter(w)
	if err := out.Write(csvHeader); err != nil {
		return err
	}

	for _, section := range report.Sections {
		record := []string{string(section.Kind), section.Title, string(section.Label), "", "", section.Amount.StringFixed(2), section.Phone}
		if err := out.Write(record); err != nil {
			return err
		}
		for _, f := range section.Figures {
			if err := out.Write([]string{string(section.Kind), section.Title, "", "", f.Name, f.Amount.StringFixed(2), ""}); err != nil {
				return err
			}
		}
		for _, row := range section.Rows {
			if err := out.Write([]string{
				string(section.Kind),
				section.Title,
				"",
				row.Date.Format("2006-01-02"),
				row.Kind,
				row.Amount.StringFixed(2),
				row.Description,
			}); err != nil {
				return err
			}
		}
	}

	out.Flush()
	return out.Error()
}
