package season

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// WriteTable prints the report as an aligned table.
func WriteTable(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "DAY\tDATE\tATTENDEES\tPLACED\tSAVE\tSCORE\tRATING\n")
	for _, d := range r.Days {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%d\t%s\n",
			d.Day, d.Date.Format("2006-01-02"), d.Attendees, d.Placed, d.SaveStatus, d.FairnessScore, d.Rating)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nmode=%s members=%d slots=%d final_score=%d duration=%s\n",
		r.Mode, r.Members, r.Slots, r.FinalScore, r.Duration.Round(time.Millisecond))
	return err
}
