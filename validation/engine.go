package validation

import "sort"

// Result holds every finding for one command, most severe first
type Result struct {
	Command  string
	Findings []Finding
}

// Clean reports a command with no findings
func (r Result) Clean() bool {
	return len(r.Findings) == 0
}

// MaxRisk returns the highest risk among the findings
func (r Result) MaxRisk() RiskLevel {
	max := RiskLow
	for _, f := range r.Findings {
		if f.Risk > max {
			max = f.Risk
		}
	}
	return max
}

// Engine runs syntax, safety and obfuscation checks
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine with the default rule set plus extra rules
func NewEngine(extra ...Rule) *Engine {
	rules := append(DefaultRules(), obfuscationRule{})
	return &Engine{rules: append(rules, extra...)}
}

// Check validates command
func (e *Engine) Check(command string) Result {
	result := Result{Command: command}
	result.Findings = append(result.Findings, syntaxCheck(command)...)

	seen := make(map[string]bool)
	for _, rule := range e.rules {
		for _, f := range rule.Check(command) {
			if seen[f.Rule] {
				continue
			}
			seen[f.Rule] = true
			result.Findings = append(result.Findings, f)
		}
	}

	// A root or home wipe also matches the generic rule; keep the specific one.
	if seen["RecursiveRootDelete"] || seen["RecursiveHomeDelete"] {
		filtered := result.Findings[:0]
		for _, f := range result.Findings {
			if f.Rule != "RecursiveDelete" {
				filtered = append(filtered, f)
			}
		}
		result.Findings = filtered
	}

	sort.SliceStable(result.Findings, func(i, j int) bool {
		return result.Findings[i].Risk > result.Findings[j].Risk
	})
	return result
}
