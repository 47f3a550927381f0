package repl

import (
	"fmt"
	"slices"
	"time"

	"github.com/eggpool/sqlitemulti/internal/multi/styled"
	"github.com/eggpool/sqlitemulti/internal/util/numutil"
	"github.com/jedib0t/go-pretty/v6/table"
)

func cmdStats(r *Repl, statsQty int) {
	stats, err := r.client.Stats(r.ctx)
	if err != nil {
		fmt.Println("Failed to get stats:", err)
		return
	}

	tw := styled.NewTableWriter()
	tw.AppendHeader(table.Row{"Minute (UTC)", "Reads", "Writes", "Begins", "Commits", "Rollbacks", "Requests"})

	rows := []table.Row{}
	for i, stat := range stats.Stats {
		if i >= statsQty {
			break
		}

		minute, err := time.Parse(time.RFC3339, stat.Minute)
		if err != nil {
			continue
		}

		rows = append(rows, table.Row{
			minute.Format("2006-01-02 15:04"),
			numutil.IntWithCommas(int(stat.Reads)),
			numutil.IntWithCommas(int(stat.Writes)),
			numutil.IntWithCommas(int(stat.Begins)),
			numutil.IntWithCommas(int(stat.Commits)),
			numutil.IntWithCommas(int(stat.Rollbacks)),
			numutil.IntWithCommas(int(stat.HTTPRequests)),
		})
	}
	slices.Reverse(rows)
	tw.AppendRows(rows)

	tw.AppendFooter(table.Row{
		"Total",
		numutil.IntWithCommas(int(stats.Totals.Reads)),
		numutil.IntWithCommas(int(stats.Totals.Writes)),
		numutil.IntWithCommas(int(stats.Totals.Begins)),
		numutil.IntWithCommas(int(stats.Totals.Commits)),
		numutil.IntWithCommas(int(stats.Totals.Rollbacks)),
		numutil.IntWithCommas(int(stats.Totals.HTTPRequests)),
	})

	fmt.Println(tw.Render())
	styled.DimmedColor().Printf("Showing the last %d minutes of stats\n", statsQty)
	styled.DimmedColor().Printf("Uptime: %s\n", stats.Uptime)
	fmt.Println()
}
