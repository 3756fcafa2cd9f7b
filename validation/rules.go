// Package validation vets AI-suggested commands before they are placed on
// the prompt. Findings are advisory: the user always sees the command and
// decides whether to run it.
package validation

import (
	"regexp"
	"strings"
)

// RiskLevel orders how dangerous a finding is
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskCritical:
		return "critical"
	case RiskHigh:
		return "high"
	case RiskMedium:
		return "medium"
	default:
		return "low"
	}
}

// Kind categorizes findings
type Kind string

const (
	KindSyntax      Kind = "syntax"
	KindSafety      Kind = "safety"
	KindObfuscation Kind = "obfuscation"
)

// Finding is one problem detected in a command
type Finding struct {
	Kind       Kind
	Rule       string
	Risk       RiskLevel
	Message    string
	Suggestion string
}

// Rule inspects a command
type Rule interface {
	Check(command string) []Finding
	Name() string
}

// patternRule implements a pattern-based safety check
type patternRule struct {
	name       string
	pattern    *regexp.Regexp
	risk       RiskLevel
	message    string
	suggestion string
}

func (r *patternRule) Check(command string) []Finding {
	if !r.pattern.MatchString(command) {
		return nil
	}
	return []Finding{{
		Kind:       KindSafety,
		Rule:       r.name,
		Risk:       r.risk,
		Message:    r.message,
		Suggestion: r.suggestion,
	}}
}

func (r *patternRule) Name() string {
	return r.name
}

// DefaultRules returns the built-in safety rules
func DefaultRules() []Rule {
	return []Rule{
		&patternRule{
			name:       "RecursiveRootDelete",
			pattern:    regexp.MustCompile(`\brm\s+(-[a-zA-Z]*r[a-zA-Z]*f|-[a-zA-Z]*f[a-zA-Z]*r)\s+/(\*)?(\s|$)`),
			risk:       RiskCritical,
			message:    "recursively deletes the entire filesystem",
			suggestion: "name the exact paths to remove",
		},
		&patternRule{
			name:       "RecursiveHomeDelete",
			pattern:    regexp.MustCompile(`\brm\s+(-[a-zA-Z]*r[a-zA-Z]*f|-[a-zA-Z]*f[a-zA-Z]*r)\s+(~|\$HOME|\$\{HOME\})/?(\s|$)`),
			risk:       RiskCritical,
			message:    "recursively deletes your home directory",
			suggestion: "name the subdirectories to remove",
		},
		&patternRule{
			name:       "RecursiveDelete",
			pattern:    regexp.MustCompile(`\brm\s+(-[a-zA-Z]*r[a-zA-Z]*f|-[a-zA-Z]*f[a-zA-Z]*r)\b`),
			risk:       RiskHigh,
			message:    "recursive forced deletion cannot be undone",
			suggestion: "check the target paths before running",
		},
		&patternRule{
			name:       "RemoteScriptPipe",
			pattern:    regexp.MustCompile(`\b(curl|wget)\b[^|]*\|\s*(sudo\s+)?(ba|z|k|da)?sh\b`),
			risk:       RiskHigh,
			message:    "runs a downloaded script without review",
			suggestion: "download the script and read it first",
		},
		&patternRule{
			name:       "DiskOverwrite",
			pattern:    regexp.MustCompile(`\bdd\b.*\bof=/dev/[a-zA-Z]`),
			risk:       RiskCritical,
			message:    "writes directly to a block device",
			suggestion: "double-check the of= target",
		},
		&patternRule{
			name:    "FormatFilesystem",
			pattern: regexp.MustCompile(`\bmkfs(\.[a-z0-9]+)?\s`),
			risk:    RiskCritical,
			message: "formats a filesystem",
		},
		&patternRule{
			name:       "WorldWritable",
			pattern:    regexp.MustCompile(`\bchmod\s+(-[a-zA-Z]*R[a-zA-Z]*|--recursive)\s+0?777\b`),
			risk:       RiskHigh,
			message:    "makes files world-writable recursively",
			suggestion: "use 755 for directories and 644 for files",
		},
		&patternRule{
			name:    "ForkBomb",
			pattern: regexp.MustCompile(`:\(\)\s*\{.*:\s*\|\s*:\s*&.*\}\s*;\s*:`),
			risk:    RiskCritical,
			message: "fork bomb: spawns processes until the system stalls",
		},
		&patternRule{
			name:       "ForcePush",
			pattern:    regexp.MustCompile(`\bgit\s+push\b.*(\s--force\b|\s-f\b)`),
			risk:       RiskMedium,
			message:    "force push rewrites remote history",
			suggestion: "prefer --force-with-lease",
		},
		&patternRule{
			name:       "TruncateFile",
			pattern:    regexp.MustCompile(`(^|[^>])>\s*/(etc|usr|bin|boot)/`),
			risk:       RiskHigh,
			message:    "overwrites a system file",
			suggestion: "use >> to append or back the file up first",
		},
	}
}

// syntaxCheck catches the obvious mistakes that make a suggestion unusable
func syntaxCheck(command string) []Finding {
	var findings []Finding
	add := func(rule, msg string) {
		findings = append(findings, Finding{Kind: KindSyntax, Rule: rule, Risk: RiskLow, Message: msg})
	}

	switch openQuote(command) {
	case '\'':
		add("UnmatchedSingleQuote", "unmatched single quote")
	case '"':
		add("UnmatchedDoubleQuote", "unmatched double quote")
	}
	trimmed := strings.TrimSpace(command)
	if strings.HasSuffix(trimmed, "|") || strings.HasSuffix(trimmed, "&&") {
		add("DanglingOperator", "command ends with an operator")
	}
	return findings
}

// openQuote returns the quote character left open at the end of command, or 0
func openQuote(command string) byte {
	var quote byte
	for i := 0; i < len(command); i++ {
		c := command[i]
		switch {
		case quote == '\'':
			if c == '\'' {
				quote = 0
			}
		case c == '\\':
			i++
		case quote == '"':
			if c == '"' {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		}
	}
	return quote
}
