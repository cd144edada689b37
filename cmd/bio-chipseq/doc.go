/*bio-chipseq orchestrates a batch ChIP-seq peak-calling workflow.

Given a tab-separated sample manifest (identifier, sample name, genome tag)
and a directory of raw alignment deliveries, the tool stages the files into a
canonical per-sample layout, resolves one control ("input") sample per
genome, runs an external peak caller for every treatment sample against its
genome's control, and converts the resulting coverage tracks into indexed
binary form. A separate merge mode combines already-produced tracks.

Run modes:

	stage             rename raw deliveries to canonical sample names
	resolve-controls  print the genome/control/treatment table
	call-peaks        invoke the peak caller per treatment sample
	convert-tracks    convert per-sample coverage output to indexed tracks
	merge-tracks      merge several indexed tracks into one
	run               stage, call peaks, and convert tracks in one pass

The peak caller, track converter, and track merger are external binaries
driven through their command-line contracts; nothing statistical happens in
process.
*/
package main
