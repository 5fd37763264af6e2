package job

import "fmt"

// Kind is the closed set of external-tool operation categories.
type Kind int

const (
	DesignRuleCheck Kind = iota
	ConnectivityCheck
	ParasiticExtraction
	Simulation
)

// kindNames holds the canonical configuration names for each kind.
var kindNames = map[Kind]string{
	DesignRuleCheck:     "design_rule_check",
	ConnectivityCheck:   "connectivity_check",
	ParasiticExtraction: "parasitic_extraction",
	Simulation:          "simulation",
}

// kindAliases maps the short flow names used on the command line and in
// checker block labels to their kinds.
var kindAliases = map[string]Kind{
	"drc":                  DesignRuleCheck,
	"design_rule_check":    DesignRuleCheck,
	"lvs":                  ConnectivityCheck,
	"connectivity_check":   ConnectivityCheck,
	"rcx":                  ParasiticExtraction,
	"parasitic_extraction": ParasiticExtraction,
	"sim":                  Simulation,
	"simulation":           Simulation,
}

// String returns the canonical configuration name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// kindShort holds the short flow names used in run-directory and log names.
var kindShort = map[Kind]string{
	DesignRuleCheck:     "drc",
	ConnectivityCheck:   "lvs",
	ParasiticExtraction: "rcx",
	Simulation:          "sim",
}

// Short returns the short flow name of the kind (drc, lvs, rcx, sim).
func (k Kind) Short() string {
	if name, ok := kindShort[k]; ok {
		return name
	}
	return k.String()
}

// ParseKind resolves a configuration or command-line name into a Kind.
// Both the canonical names and the short flow names (drc, lvs, rcx, sim)
// are accepted.
func ParseKind(name string) (Kind, error) {
	if k, ok := kindAliases[name]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown job kind %q", name)
}

// Kinds returns all kinds in a stable order.
func Kinds() []Kind {
	return []Kind{DesignRuleCheck, ConnectivityCheck, ParasiticExtraction, Simulation}
}
