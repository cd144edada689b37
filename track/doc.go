/*Package track drives the conversion and merging of genomic signal tracks.

  A signal track is a coverage file tied to the coordinate system of one
  reference genome, described by a chromosome-size table. The bigWig and
  bedGraph encodings themselves are handled by external tools; this package
  validates genome/table pairings, orders merged intervals deterministically,
  and invokes the tools through their command-line contracts.
*/
package track
