package validation

import (
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
)

var (
	base64PipePattern = regexp.MustCompile(`echo\s+(-n\s+)?["']?([A-Za-z0-9+/=]{8,})["']?\s*\|\s*base64\s+(-d|--decode|-D)`)
	hexPattern        = regexp.MustCompile(`(\\x[0-9a-fA-F]{2}){4,}`)
	evalPattern       = regexp.MustCompile(`\beval\b.*\$\(`)
	shellSinkPattern  = regexp.MustCompile(`\|\s*(sudo\s+)?(ba|z|k|da)?sh\b`)
)

// obfuscationRule flags commands that hide what they run
type obfuscationRule struct{}

func (obfuscationRule) Name() string {
	return "Obfuscation"
}

func (obfuscationRule) Check(command string) []Finding {
	var findings []Finding

	if m := base64PipePattern.FindStringSubmatch(command); m != nil {
		decoded, err := base64.StdEncoding.DecodeString(m[2])
		if err == nil && printable(string(decoded)) {
			risk := RiskMedium
			if shellSinkPattern.MatchString(command) {
				risk = RiskHigh
			}
			findings = append(findings, Finding{
				Kind:       KindObfuscation,
				Rule:       "Base64Payload",
				Risk:       risk,
				Message:    "decodes a hidden payload: " + strings.TrimSpace(string(decoded)),
				Suggestion: "run the decoded command directly so it can be read",
			})
		}
	}

	if m := hexPattern.FindString(command); m != "" {
		raw, err := hex.DecodeString(strings.ReplaceAll(m, `\x`, ""))
		if err == nil && printable(string(raw)) {
			findings = append(findings, Finding{
				Kind:    KindObfuscation,
				Rule:    "HexEscapes",
				Risk:    RiskMedium,
				Message: "contains hex-escaped text: " + string(raw),
			})
		}
	}

	if evalPattern.MatchString(command) {
		findings = append(findings, Finding{
			Kind:    KindObfuscation,
			Rule:    "EvalSubstitution",
			Risk:    RiskHigh,
			Message: "evaluates the output of another command",
		})
	}
	return findings
}

func printable(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
