package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Errorf("cd: no such file or directory: %s", "/tmp/x")
	p.Warnf("warning: %s", "recursive delete")
	p.Suggestion("find . -size +100M")
	p.Explanation("Finds files larger\nthan 100MB.")
	p.Explanation("   ")

	out := buf.String()
	assert.Contains(t, out, "cd: no such file or directory: /tmp/x")
	assert.Contains(t, out, "warning: recursive delete")
	assert.Contains(t, out, "find . -size +100M")
	assert.Contains(t, out, "  Finds files larger\n")
	assert.Contains(t, out, "  than 100MB.\n")
	assert.Same(t, &buf, p.Writer())
}
