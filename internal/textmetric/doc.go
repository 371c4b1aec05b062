// Package textmetric scores extracted text against reference transcriptions
// using normalized character and word error rates.
package textmetric
