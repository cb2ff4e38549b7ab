/*Package interval defines the genomic interval shared by every crosslink
  processing stage: a single-nucleotide crosslink site, a merged cluster or a
  significant peak are all an Interval with a strand and an integer score.

  Coordinates are 0-based and half-open, as in BED; a site at position p is
  the interval [p, p+1). It assumes every position fits in a PosType, which is
  currently defined as int32 since that's what BAM files are limited to.
*/
package interval
