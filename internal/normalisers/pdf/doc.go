// Package pdf parses PDF reports into paragraphs and table year-columns.
//
// Text is recovered from positioned glyphs rather than from the content
// stream order. Glyphs are merged into runs, runs into rows by baseline,
// and rows into either paragraphs or tables:
//
//   - a run breaks where the horizontal gap exceeds one font size
//   - consecutive rows with two or more runs each form a table when they
//     yield a year column; otherwise they read as ordinary text
//   - remaining rows join into paragraphs, split on a wide vertical gap
//
// The first row of a table is its header. Header cells holding a year
// between 1900 and 2100 (exclusive) become year columns; each year
// column yields one table_column chunk.
package pdf
