package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"listing-counter/models"
	"listing-counter/storage"
	"listing-counter/utils"
)

// SeriesService turns stored records into chart data and prints cycle
// summaries.
type SeriesService struct {
	store  storage.SeriesReader
	logger *utils.Logger
	out    io.Writer
}

func NewSeriesService(store storage.SeriesReader, logger *utils.Logger) *SeriesService {
	return &SeriesService{store: store, logger: logger, out: os.Stdout}
}

// DailyTotals sums rows per calendar day, ascending by date. Several rows
// for the same day (forced re-scrapes, several categories) add up.
func DailyTotals(records []models.Record) []models.DailyPoint {
	byDate := make(map[time.Time]*models.DailyPoint)
	for _, r := range records {
		d := models.DateOf(r.Date)
		p, ok := byDate[d]
		if !ok {
			p = &models.DailyPoint{Date: d}
			byDate[d] = p
		}
		p.Finn += r.Finn
		p.Hjem += r.Hjem
		p.Total += r.Total
	}

	points := make([]models.DailyPoint, 0, len(byDate))
	for _, p := range byDate {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

// Chart reads the region's rows and shapes them for the chart view.
func (s *SeriesService) Chart(region string) (*models.Chart, error) {
	records, err := s.store.Read(region)
	if err != nil {
		return nil, fmt.Errorf("series: read %q: %w", region, err)
	}

	points := DailyTotals(records)
	chart := &models.Chart{
		Region: region,
		Dates:  make([]string, len(points)),
		Finn:   make([]int, len(points)),
		Hjem:   make([]int, len(points)),
		Total:  make([]int, len(points)),
	}
	for i, p := range points {
		chart.Dates[i] = p.Date.Format(models.DateLayout)
		chart.Finn[i] = p.Finn
		chart.Hjem[i] = p.Hjem
		chart.Total[i] = p.Total
	}
	s.logger.Debug("[series] %s: %d rows over %d days", region, len(records), len(points))
	return chart, nil
}

// Summarize aggregates one cycle's records. Miss counters are left for the
// caller, which is the only place that saw the failures.
func Summarize(records []models.Record) models.CycleSummary {
	sum := models.CycleSummary{
		Records:  len(records),
		ByRegion: make(map[string]int),
	}
	for _, r := range records {
		sum.FinnTotal += r.Finn
		sum.HjemTotal += r.Hjem
		sum.GrandTotal += r.Total
		sum.ByRegion[r.City] += r.Total
		if r.Total == 0 {
			sum.ZeroPairs = append(sum.ZeroPairs, r.City+"/"+r.Category)
		}
	}
	return sum
}

// Print writes a terminal report of one cycle.
func (s *SeriesService) Print(sum models.CycleSummary, regionOrder []string) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)
	w := s.out

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📈 LISTING COUNT CYCLE\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Records written : \033[1m%d\033[0m\n", sum.Records)
	fmt.Fprintf(w, "  finn.no total   : \033[1;32m%d\033[0m\n", sum.FinnTotal)
	fmt.Fprintf(w, "  hjem.no total   : \033[1;32m%d\033[0m\n", sum.HjemTotal)
	fmt.Fprintf(w, "  Combined        : \033[1;32m%d\033[0m\n", sum.GrandTotal)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Listings by Region\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, region := range regionOrder {
		total, ok := sum.ByRegion[region]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-30s %d\n", truncate(region, 28), total)
	}
	fmt.Fprintln(w)

	if sum.FinnMisses > 0 || sum.HjemMisses > 0 || len(sum.ZeroPairs) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Data Quality\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  finn.no failures : \033[1;31m%d\033[0m\n", sum.FinnMisses)
		fmt.Fprintf(w, "  hjem.no failures : \033[1;31m%d\033[0m\n", sum.HjemMisses)
		for _, pair := range sum.ZeroPairs {
			fmt.Fprintf(w, "  zero total: %s\n", pair)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
