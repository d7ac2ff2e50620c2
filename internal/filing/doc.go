// Package filing derives archive locations. Documents land under
// category/year/year-month folders with a date-and-abbreviation filename, so
// the archive stays browsable without the catalog.
package filing
