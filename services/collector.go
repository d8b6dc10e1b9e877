package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"listing-counter/config"
	"listing-counter/models"
	"listing-counter/storage"
	"listing-counter/utils"
)

// SourceClient counts listings on one site. Implementations absorb every
// failure into the returned result.
type SourceClient interface {
	Source() models.Source
	Count(ctx context.Context, region config.Region, category config.Category) models.CountResult
}

// CollectorDeps wires a Collector.
type CollectorDeps struct {
	Catalog *config.Catalog
	Finn    SourceClient
	Hjem    SourceClient
	Store   storage.SeriesWriter
	Sinks   []storage.RecordSink
	Series  *SeriesService

	// Concurrency is the number of pairs collected at once. Below one
	// means sequential.
	Concurrency int
	Logger      *utils.Logger
	Now         func() time.Time
}

// Collector runs collection cycles: one record per (region, category) pair,
// appended to the series as a single batch.
type Collector struct {
	catalog     *config.Catalog
	finn        SourceClient
	hjem        SourceClient
	store       storage.SeriesWriter
	sinks       []storage.RecordSink
	series      *SeriesService
	concurrency int
	logger      *utils.Logger
	now         func() time.Time
}

func NewCollector(d CollectorDeps) *Collector {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Collector{
		catalog:     d.Catalog,
		finn:        d.Finn,
		hjem:        d.Hjem,
		store:       d.Store,
		sinks:       d.Sinks,
		series:      d.Series,
		concurrency: d.Concurrency,
		logger:      d.Logger,
		now:         now,
	}
}

type pair struct {
	region   config.Region
	category config.Category
}

type pairOutcome struct {
	record models.Record
	finnOK bool
	hjemOK bool
}

// count calls one source client for the pair. A panic inside the client is
// reported like any other source failure so the pair still gets a row.
func (c *Collector) count(ctx context.Context, client SourceClient, p pair) (res models.CountResult) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("%s client panicked: %v", client.Source(), rec)
			c.logger.With("region", p.region.Name, "category", p.category.Name, "kind", string(models.InternalFailure)).
				Error("[collector] %s/%s: %v", p.region.Name, p.category.Name, err)
			res = models.CountResult{Source: client.Source(), Failure: models.InternalFailure, Err: err}
		}
	}()
	return client.Count(ctx, p.region, p.category)
}

// RunCycle queries both sources for every pair in catalog order, appends
// the resulting records and returns them. Source failures never fail the
// cycle; a store failure does, and nothing is mirrored in that case.
func (c *Collector) RunCycle(ctx context.Context) ([]models.Record, error) {
	start := c.now()
	date := models.DateOf(start)

	var pairs []pair
	for _, region := range c.catalog.Regions() {
		for _, category := range c.catalog.Categories() {
			pairs = append(pairs, pair{region: region, category: category})
		}
	}

	c.logger.Info("[collector] Starting cycle for %s: %d regions × %d categories",
		date.Format(models.DateLayout), len(c.catalog.Regions()), len(c.catalog.Categories()))

	outcomes := make([]pairOutcome, len(pairs))
	pool := utils.NewWorkerPool(c.concurrency, 0)
	for i, p := range pairs {
		pool.Submit(func() {
			finn := c.count(ctx, c.finn, p)
			hjem := c.count(ctx, c.hjem, p)
			rec := Combine(date, p.region, p.category, finn, hjem)
			outcomes[i] = pairOutcome{record: rec, finnOK: finn.OK(), hjemOK: hjem.OK()}

			c.logger.Info("[collector] %s / %s: finn=%d hjem=%d total=%d",
				rec.City, rec.Category, rec.Finn, rec.Hjem, rec.Total)
		})
	}
	pool.Wait()

	if panics := pool.Panics(); len(panics) > 0 {
		return nil, fmt.Errorf("collect: %d pair(s) panicked: %w", len(panics), errors.Join(panics...))
	}
	// Counts gathered after cancellation are zeros from aborted requests.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect: cycle interrupted: %w", err)
	}

	records := make([]models.Record, len(outcomes))
	for i, o := range outcomes {
		records[i] = o.record
	}

	if err := c.store.AppendBatch(records); err != nil {
		return nil, fmt.Errorf("collect: append series: %w", err)
	}

	for _, sink := range c.sinks {
		if err := sink.Write(ctx, records); err != nil {
			c.logger.With("sink", sink.Name()).Warn("[collector] Mirror %s failed: %v", sink.Name(), err)
		}
	}

	sum := Summarize(records)
	for _, o := range outcomes {
		if !o.finnOK {
			sum.FinnMisses++
		}
		if !o.hjemOK {
			sum.HjemMisses++
		}
	}
	if c.series != nil {
		c.series.Print(sum, c.catalog.RegionNames())
	}

	c.logger.Info("[collector] Cycle complete in %v: %d records, %d finn and %d hjem failures",
		c.now().Sub(start).Round(time.Millisecond), len(records), sum.FinnMisses, sum.HjemMisses)
	return records, nil
}
