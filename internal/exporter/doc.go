// Package exporter writes the pipeline's output artifacts.
//
// CSVWriter is the core writer with streaming support and a UTF-8 BOM
// for Excel compatibility. On top of it sit typed writers for the
// per-cohort trade files, the daily panels, the merged panel, the
// cross-market summary and the flow report. ExcelWriter renders the
// summary as a workbook.
//
// Undefined probabilities are written as empty cells, never as zero.
package exporter
