// Package sanitizer normalizes free-form input before validation and storage.
//
// Every function is idempotent and total: invalid input yields an empty
// string or an empty slice, never an error.
//
// Normalization includes:
//   - Text: collapse whitespace, trim
//   - Tags and categories: lowercase, hyphen-separated, letters and digits only
//   - Phone numbers: E.164 (+[country][number]), French numbering by default
//   - Image URLs: https only, lowercase host, tracking parameters dropped
//   - Slices: duplicates and empty values removed after normalization
package sanitizer
