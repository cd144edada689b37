/*Package chipseq orchestrates a batch ChIP-seq peak-calling workflow.

  The pipeline stages raw alignment deliveries into a canonical per-sample
  layout, partitions the samples of a manifest by reference genome, resolves
  exactly one control ("input") sample per genome, and invokes an external
  peak caller once per treatment sample against its genome's control.

  The peak-calling statistics, the bigWig encoding and the genome browser
  utilities are external tools; this package only drives them through their
  command-line contracts.
*/
package chipseq
