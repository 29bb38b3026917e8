package assessment

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"tankscope/internal/dataset"
	"tankscope/internal/stats"
)

// Cohort is the filter-dependent part of an assessment. It depends only on
// the dataset generation and the sample, so it can be shared between passes.
type Cohort struct {
	Rates          []float64           `json:"-"`
	Summary        stats.Summary       `json:"summary"`
	AgeBins        []stats.BinGroup    `json:"age_bins"`
	MaterialTop    []stats.Group       `json:"material_top"`
	MaterialBottom []stats.Group       `json:"material_bottom"`
	RegionTop      []stats.Group       `json:"region_top"`
	RegionBottom   []stats.Group       `json:"region_bottom"`
	Outliers       stats.OutlierReport `json:"outliers"`
}

// DescribeCohort computes the cohort statistics of a sample.
func DescribeCohort(sample dataset.Sample, topN int) *Cohort {
	rate := func(o dataset.Observation) float64 { return o.Rate }
	c := &Cohort{Rates: sample.Rates()}
	c.Summary = stats.Describe(c.Rates)
	c.AgeBins = stats.GroupByAgeBin(sample.Observations, func(o dataset.Observation) float64 { return o.Age }, rate)
	c.MaterialTop, c.MaterialBottom = stats.TopBottom(
		stats.GroupBy(sample.Observations, func(o dataset.Observation) string { return o.Material }, rate), topN)
	c.RegionTop, c.RegionBottom = stats.TopBottom(
		stats.GroupBy(sample.Observations, func(o dataset.Observation) string { return o.Region }, rate), topN)
	c.Outliers = stats.DetectOutliers(c.Rates)
	return c
}

// Cache memoises cohort statistics per (dataset generation, filter, sample
// size). Concurrent requests for the same key share one computation.
type Cache struct {
	mu      sync.RWMutex
	gen     uint64
	entries map[string]*Cohort
	group   singleflight.Group
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Cohort)}
}

// Cohort returns the statistics for sample, computing them at most once per key.
// Entries from an older generation are dropped on first access.
func (c *Cache) Cohort(gen uint64, sample dataset.Sample, topN int) *Cohort {
	key := fmt.Sprintf("%d|%s|n=%d|top=%d", gen, sample.Filter.Key(), sample.Len(), topN)

	c.mu.RLock()
	stale := gen != c.gen
	hit, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return hit
	}
	if stale {
		c.advance(gen)
	}

	v, _, shared := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		hit, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return hit, nil
		}
		cohort := DescribeCohort(sample, topN)
		c.mu.Lock()
		if c.gen == gen {
			c.entries[key] = cohort
		}
		c.mu.Unlock()
		return cohort, nil
	})
	log.Debug().Str("key", key).Bool("shared", shared).Msg("Cohort statistics computed")
	return v.(*Cohort)
}

func (c *Cache) advance(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen > c.gen {
		c.gen = gen
		c.entries = make(map[string]*Cohort)
	}
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Cohort)
}

// Len returns the number of cached cohorts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
