package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/breadlens/backend/internal/domain"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// RenderComparison prints the comparison table, one row per product group.
// The cheapest comparable slot is starred.
func RenderComparison(w io.Writer, result *domain.AnalysisResult) {
	t := newTable(w)

	header := table.Row{"#", "Product", "Brand", "Platforms"}
	for _, p := range result.Platforms {
		header = append(header, string(p))
	}
	header = append(header, "Spread %")
	t.AppendHeader(header)

	for _, r := range result.Comparison {
		row := table.Row{r.GroupID, r.ProductName, r.Brand, r.PlatformsAvailable}
		for _, p := range result.Platforms {
			row = append(row, slotText(r.Slots[p]))
		}
		spread := "-"
		if r.IsComparable {
			spread = fmt.Sprintf("%.1f", r.PriceSpreadPercent)
		}
		row = append(row, spread)
		t.AppendRow(row)
	}

	t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
	t.Render()
}

func slotText(slot domain.PlatformSlot) string {
	if slot.Price == nil {
		return "-"
	}
	s := fmt.Sprintf("₹%.2f (%.2f/100g)", *slot.Price, *slot.PricePer100g)
	if slot.IsBest {
		s += " *"
	}
	return s
}

// RenderInsights prints platform performance and headline numbers
func RenderInsights(w io.Writer, result *domain.AnalysisResult) {
	ins := result.Insights

	t := newTable(w)
	t.SetTitle("Platform performance")
	t.AppendHeader(table.Row{"Platform", "Best deals", "Avg ₹/100g", "Avg diff %"})
	platforms := make([]domain.Platform, 0, len(ins.PlatformPerformance))
	for p := range ins.PlatformPerformance {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	for _, p := range platforms {
		s := ins.PlatformPerformance[p]
		t.AppendRow(table.Row{p, s.BestDealWins, fmt.Sprintf("%.2f", s.AvgPricePer100g), fmt.Sprintf("%.2f", s.AvgPriceDifferencePercent)})
	}
	t.AppendFooter(table.Row{"", "", "Avg diff %", fmt.Sprintf("%.1f", ins.AvgPriceDifferencePercent)})
	t.Render()

	fmt.Fprintf(w, "Products compared: %d\n", len(result.Comparison))
	fmt.Fprintf(w, "Maximum savings opportunity: ₹%.2f/100g\n", ins.MaxSavingsOpportunity)
	if best, n := topPlatform(ins.BestDealsCount); n > 0 {
		fmt.Fprintf(w, "Platform with most best deals: %s (%d)\n", best, n)
	}

	if len(ins.WorstDeals) > 0 {
		wt := newTable(w)
		wt.SetTitle("Biggest overpays")
		wt.AppendHeader(table.Row{"Product", "Platform", "₹/100g", "Over best %"})
		for _, d := range ins.WorstDeals {
			wt.AppendRow(table.Row{d.Name, d.Platform, fmt.Sprintf("%.2f", d.PricePer100g), fmt.Sprintf("%.1f", d.PriceDifferencePercent)})
		}
		wt.Render()
	}
}

// topPlatform returns the platform with the most wins, ties by name
func topPlatform(counts map[domain.Platform]int) (domain.Platform, int) {
	var best domain.Platform
	n := 0
	for p, c := range counts {
		if c > n || (c == n && p < best) {
			best, n = p, c
		}
	}
	return best, n
}

// RenderScrapeSummary prints per-platform counts for a scrape run
func RenderScrapeSummary(w io.Writer, summaries []domain.PlatformSummary, failures map[domain.Platform]error) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Platform", "Products", "Usable", "Avg ₹/100g", "Status"})

	total := 0
	for _, s := range summaries {
		status := "ok"
		if err, ok := failures[s.Platform]; ok {
			status = "failed: " + err.Error()
		}
		avg := "-"
		if s.Priced > 0 {
			avg = fmt.Sprintf("%.2f", s.AvgPricePer100g)
		}
		t.AppendRow(table.Row{s.Platform, s.Products, s.Priced, avg, status})
		total += s.Products
	}
	t.AppendFooter(table.Row{"Total", total, "", "", ""})
	t.Render()
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

// RenderRuns lists persisted analysis runs, newest first
func RenderRuns(w io.Writer, runs []domain.AnalysisSummary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Run", "Created", "Listings", "Groups", "Deals"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.RunID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.InputCount, r.GroupCount, r.DealCount})
	}
	t.Render()
}
