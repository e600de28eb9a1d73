// Package stats aggregates production, sales, and revenue figures into
// daily, weekly, and monthly buckets keyed by calendar period.
package stats

import (
	"fmt"
	"time"
)

// Bucket holds per-recipe tallies for one calendar period.
type Bucket struct {
	Production map[string]int `json:"production"`
	Sales      map[string]int `json:"sales"`
	Revenue    float64        `json:"revenue"`
}

func newBucket() *Bucket {
	return &Bucket{
		Production: make(map[string]int),
		Sales:      make(map[string]int),
	}
}

// Tracker is the statistics aggregator.
type Tracker struct {
	Daily   map[string]*Bucket `json:"daily"`
	Weekly  map[string]*Bucket `json:"weekly"`
	Monthly map[string]*Bucket `json:"monthly"`
}

func New() *Tracker {
	return &Tracker{
		Daily:   make(map[string]*Bucket),
		Weekly:  make(map[string]*Bucket),
		Monthly: make(map[string]*Bucket),
	}
}

// DayKey formats a daily bucket key.
func DayKey(t time.Time) string { return t.Format("2006-01-02") }

// WeekKey formats a weekly bucket key using the ISO week number.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey formats a monthly bucket key.
func MonthKey(t time.Time) string { return t.Format("2006-01") }

func (tr *Tracker) buckets(t time.Time) []*Bucket {
	day := tr.Daily[DayKey(t)]
	if day == nil {
		day = newBucket()
		tr.Daily[DayKey(t)] = day
	}
	week := tr.Weekly[WeekKey(t)]
	if week == nil {
		week = newBucket()
		tr.Weekly[WeekKey(t)] = week
	}
	month := tr.Monthly[MonthKey(t)]
	if month == nil {
		month = newBucket()
		tr.Monthly[MonthKey(t)] = month
	}
	return []*Bucket{day, week, month}
}

// RecordProduction tallies a finished batch in every period bucket.
func (tr *Tracker) RecordProduction(t time.Time, recipeID string, quantity int) {
	for _, b := range tr.buckets(t) {
		b.Production[recipeID] += quantity
	}
}

// RecordSale tallies a sale and its revenue in every period bucket.
func (tr *Tracker) RecordSale(t time.Time, recipeID string, quantity int, revenue float64) {
	for _, b := range tr.buckets(t) {
		b.Sales[recipeID] += quantity
		b.Revenue += revenue
	}
}

// Day returns the bucket for the day containing t, or nil.
func (tr *Tracker) Day(t time.Time) *Bucket { return tr.Daily[DayKey(t)] }

// Restore replaces the tracker contents from a persisted copy.
func (tr *Tracker) Restore(other *Tracker) {
	if other == nil {
		return
	}
	if other.Daily != nil {
		tr.Daily = other.Daily
	}
	if other.Weekly != nil {
		tr.Weekly = other.Weekly
	}
	if other.Monthly != nil {
		tr.Monthly = other.Monthly
	}
}
