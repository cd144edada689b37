package chipseq

import "strings"

// GenomeFamily classifies a reference build tag into the species family the
// peak caller has an effective-genome-size preset for. The mapping is a
// closed table; tags outside it get FamilyUnknown and peak calling proceeds
// without the size flag.
type GenomeFamily int

const (
	FamilyUnknown GenomeFamily = iota
	FamilyHuman
	FamilyMouse
	FamilyFly
	FamilyWorm
)

var genomeFamilies = map[string]GenomeFamily{
	"hg18":   FamilyHuman,
	"hg19":   FamilyHuman,
	"hg38":   FamilyHuman,
	"grch37": FamilyHuman,
	"grch38": FamilyHuman,
	"mm9":    FamilyMouse,
	"mm10":   FamilyMouse,
	"mm39":   FamilyMouse,
	"grcm38": FamilyMouse,
	"grcm39": FamilyMouse,
	"dm3":    FamilyFly,
	"dm6":    FamilyFly,
	"ce10":   FamilyWorm,
	"ce11":   FamilyWorm,
}

// FamilyOf looks up the family of a genome tag, case-insensitively.
func FamilyOf(genome string) GenomeFamily {
	return genomeFamilies[strings.ToLower(genome)]
}

// SizeFlag returns the peak caller's effective-genome-size code for the
// family. ok is false for FamilyUnknown, in which case the flag is omitted
// from the invocation.
func (f GenomeFamily) SizeFlag() (code string, ok bool) {
	switch f {
	case FamilyHuman:
		return "hs", true
	case FamilyMouse:
		return "mm", true
	case FamilyFly:
		return "dm", true
	case FamilyWorm:
		return "ce", true
	}
	return "", false
}

func (f GenomeFamily) String() string {
	switch f {
	case FamilyHuman:
		return "human"
	case FamilyMouse:
		return "mouse"
	case FamilyFly:
		return "fly"
	case FamilyWorm:
		return "worm"
	}
	return "unknown"
}
