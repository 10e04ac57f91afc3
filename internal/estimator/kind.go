// Package estimator defines the closed set of weak causal-structure
// estimators, resolves them to implementations, and builds the estimate
// collection a run fuses.
package estimator

import "fmt"

// Family groups estimators the way they are configured under model.active_lfs.
type Family int

const (
	FamilyNotears Family = iota
	FamilyClassic
	FamilyPycausal
)

// Families returns every family in configuration order.
func Families() []Family {
	return []Family{FamilyNotears, FamilyClassic, FamilyPycausal}
}

func (f Family) String() string {
	switch f {
	case FamilyNotears:
		return "notears"
	case FamilyClassic:
		return "classic"
	case FamilyPycausal:
		return "pycausal"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// ThirdParty reports whether the family's estimators run through an
// external third-party toolkit.
func (f Family) ThirdParty() bool {
	switch f {
	case FamilyPycausal:
		return true
	case FamilyNotears, FamilyClassic:
		return false
	default:
		return false
	}
}

// Kind is one supported estimator.
type Kind int

const (
	// notears family
	NotearsLinear Kind = iota
	NotearsMLP
	NotearsSob
	NotearsLowRank
	Golem
	DagGNN
	GranDAG

	// classic family
	PC
	GES
	ICALiNGAM
	DirectLiNGAM
	ANM
	Corr

	// pycausal family
	FGES
	FGESMB
	GFCI
	RFCI
	FCI
	PCAll
	MMHC

	numKinds
)

var kindNames = [numKinds]string{
	NotearsLinear:  "notears_linear",
	NotearsMLP:     "notears_mlp",
	NotearsSob:     "notears_sob",
	NotearsLowRank: "notears_low_rank",
	Golem:          "golem",
	DagGNN:         "dag_gnn",
	GranDAG:        "grandag",
	PC:             "pc",
	GES:            "ges",
	ICALiNGAM:      "icalingam",
	DirectLiNGAM:   "directlingam",
	ANM:            "anm",
	Corr:           "corr",
	FGES:           "fges",
	FGESMB:         "fges_mb",
	GFCI:           "gfci",
	RFCI:           "rfci",
	FCI:            "fci",
	PCAll:          "pc_all",
	MMHC:           "mmhc",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Family returns the family k belongs to.
func (k Kind) Family() Family {
	switch k {
	case NotearsLinear, NotearsMLP, NotearsSob, NotearsLowRank, Golem, DagGNN, GranDAG:
		return FamilyNotears
	case PC, GES, ICALiNGAM, DirectLiNGAM, ANM, Corr:
		return FamilyClassic
	case FGES, FGESMB, GFCI, RFCI, FCI, PCAll, MMHC:
		return FamilyPycausal
	default:
		return Family(-1)
	}
}

// All returns every estimator kind in declaration order.
func All() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// ByFamily returns the kinds belonging to f.
func ByFamily(f Family) []Kind {
	var out []Kind
	for _, k := range All() {
		if k.Family() == f {
			out = append(out, k)
		}
	}
	return out
}

// Lookup resolves a configured estimator name within a family.
func Lookup(f Family, name string) (Kind, bool) {
	for _, k := range ByFamily(f) {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}
