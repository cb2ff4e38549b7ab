// Package umi groups random barcodes (randomers, UMIs) that are likely to
// originate from the same reverse-transcription event. Barcodes are joined
// when their Hamming distance is within a mismatch tolerance; the groups are
// the connected components of that relation.
package umi
