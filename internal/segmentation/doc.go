// Package segmentation implements the cohort analysis engine for
// prediction-market order flow.
//
// Trades for a market are classified by size into four cohorts (Small,
// Medium, Large, Whale) using statistically derived thresholds, indexed
// onto a per-market day coordinate, and accumulated into daily panels
// of cumulative net positions for the Yes and No outcome legs. The
// bounded implied-probability signal p = H_Y / (|H_Y| + |H_N|) encodes
// directional skew per cohort; the panel merger aligns the four cohort
// series with the official market price series on the shared day index.
//
// The stages form a strict sequential dependency chain per market:
// thresholds -> assignment -> day indexing -> accumulation -> merge.
// Nothing in this package is shared between markets, so callers may
// process markets concurrently without synchronization.
package segmentation
