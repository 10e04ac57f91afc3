package estimator

import (
	"maps"

	"github.com/josephgoksu/causalfuse/types"
)

// Entry is one configured estimator.
type Entry struct {
	Name     string
	Kind     Kind
	Settings map[string]any
}

// Plan is the ordered list of estimators a run invokes: notears, then
// classic, then pycausal, each in configured order.
type Plan []Entry

// Names returns the entry names in order.
func (p Plan) Names() []string {
	out := make([]string, len(p))
	for i, e := range p {
		out[i] = e.Name
	}
	return out
}

// PlanFromConfig resolves the configured estimator names. Unknown names and
// names configured more than once (in one family or across families) are
// config errors.
//
// Settings for an entry are model.lf_settings[<family>] overlaid with
// model.lf_settings[<name>].
func PlanFromConfig(cfg types.ModelConfig) (Plan, error) {
	var plan Plan
	seen := make(map[string]Family)

	for _, fam := range Families() {
		for _, name := range familyNames(cfg.ActiveLFs, fam) {
			kind, ok := Lookup(fam, name)
			if !ok {
				return nil, types.Configf("unknown %s estimator %q", fam, name)
			}
			if prev, dup := seen[name]; dup {
				if prev == fam {
					return nil, types.Configf("estimator %q listed twice under %s", name, fam)
				}
				return nil, types.Configf("estimator %q configured under both %s and %s", name, prev, fam)
			}
			seen[name] = fam

			settings := make(map[string]any)
			maps.Copy(settings, cfg.LFSettings[fam.String()])
			maps.Copy(settings, cfg.LFSettings[name])
			plan = append(plan, Entry{Name: name, Kind: kind, Settings: settings})
		}
	}
	return plan, nil
}

func familyNames(lfs types.ActiveLFs, f Family) []string {
	switch f {
	case FamilyNotears:
		return lfs.Notears
	case FamilyClassic:
		return lfs.Classic
	case FamilyPycausal:
		return lfs.Pycausal
	default:
		return nil
	}
}
