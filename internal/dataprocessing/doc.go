// Package dataprocessing loads raw trade and price CSV files into the
// typed domain model and derives cross-market summaries and quality
// analytics from processed results.
//
// Column resolution happens exactly once per source: the trade size
// column is picked from an ordered candidate list, and rows that fail
// to parse are skipped individually so one bad row never sinks a
// market. A market whose required columns cannot be resolved at all is
// reported with a MissingFieldError and skipped as a unit.
package dataprocessing
