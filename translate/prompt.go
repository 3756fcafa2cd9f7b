package translate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const systemPrompt = `You translate requests into a single shell command.
The user typed something into an interactive shell and it failed. It may be a
natural-language request or a mistyped command.
Reply with a JSON object only: {"command": "<one command line>", "explanation": "<one or two sentences>"}.
The command must run as-is in the given shell and operating system. Prefer
safe, non-destructive commands. If no command fits, reply {"command": ""}.`

// SystemPrompt returns the fixed instructions sent with every request
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt renders req as the user message
func UserPrompt(req Request) string {
	var b strings.Builder

	if req.OS != "" || req.Shell != "" {
		fmt.Fprintf(&b, "Operating system: %s\nShell: %s\n", req.OS, req.Shell)
	}
	if summary := req.Context.Summary(); summary != "" {
		b.WriteString(summary)
	}
	if len(req.Recent) > 0 {
		b.WriteString("Recent commands:\n")
		for _, c := range req.Recent {
			fmt.Fprintf(&b, "  %s\n", c)
		}
	}
	b.WriteByte('\n')

	fmt.Fprintf(&b, "Request: %s\n", req.Text)

	if f := req.Failure; f != nil {
		b.WriteString("\nThe previously suggested command failed.\n")
		fmt.Fprintf(&b, "Suggested command: %s\n", f.Command)
		if f.Signal != "" {
			fmt.Fprintf(&b, "It was terminated by %s.\n", f.Signal)
		} else {
			fmt.Fprintf(&b, "Exit code: %d\n", f.ExitCode)
		}
		if stderr := strings.TrimSpace(f.Stderr); stderr != "" {
			fmt.Fprintf(&b, "Error output:\n%s\n", stderr)
		}
		b.WriteString("Suggest a corrected command for the original request.\n")
	}
	return b.String()
}

var fencePattern = regexp.MustCompile("(?s)```(?:json|shell|bash|sh)?\\s*(.*?)```")

// ParseResponse extracts a suggestion from raw model output. It accepts a
// JSON object, optionally inside a code fence, or a bare single-line command.
func ParseResponse(raw string) (*Suggestion, error) {
	text := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if text == "" {
		return nil, ErrNoSuggestion
	}

	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			var payload struct {
				Command     string `json:"command"`
				Explanation string `json:"explanation"`
			}
			if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err == nil {
				return finish(payload.Command, payload.Explanation)
			}
		}
	}

	// A bare answer: take the first non-empty line as the command.
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "$ "))
		if line != "" {
			return finish(line, "")
		}
	}
	return nil, ErrNoSuggestion
}

func finish(command, explanation string) (*Suggestion, error) {
	command = strings.TrimSpace(command)
	if command == "" || strings.ContainsAny(command, "\r\n") {
		return nil, ErrNoSuggestion
	}
	return &Suggestion{Command: command, Explanation: strings.TrimSpace(explanation)}, nil
}
