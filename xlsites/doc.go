/*Package xlsites collapses aligned iCLIP reads into quantified crosslink
  sites.

  Concepts:

  A crosslink site is the single nucleotide at which a protein was covalently
  bound to the RNA. Reverse transcription stops at the crosslinked
  nucleotide, so the cDNA (and the sequenced read) starts immediately
  downstream of it: the crosslink is the position just before the read's 5'
  end on the read's strand.

  Every read carries a random barcode (randomer) that was ligated before PCR
  amplification and is stored in the read name after "rbc:". Reads that share
  a 5' end and whose barcodes are within a small Hamming distance of each
  other are PCR duplicates of one original cDNA molecule.

  Reads are split into two streams:
    unique: exactly one reported alignment (NH == 1) with MAPQ >= threshold.
    multi:  2 <= NH <= multimax; every alignment of the read is used.
  Reads with more than multimax alignments are dropped.

  Within a stream, reads are grouped by (chromosome, strand, 5' end) and the
  barcodes of each group are clustered (see package umi). Each barcode
  cluster counts as one cDNA molecule, or as its number of reads when
  quantifying reads. A representative read is chosen per cluster: the one
  with the most frequent barcode in the cluster, then the longest, then the
  lexicographically smallest barcode, then the smallest read name. Its start,
  middle or end coordinate becomes the reported position, and counts at the
  same (position, strand) are summed into one site.
*/
package xlsites
