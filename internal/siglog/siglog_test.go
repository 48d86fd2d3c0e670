package siglog

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfofWritesWhenNotQuiet(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetQuiet(false)
	defer SetOutput(io.Discard)

	Infof("hello %s", "world")
	assert.Contains(t, buf.String(), "INFO hello world")
}

func TestInfofSuppressedWhenQuiet(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetQuiet(true)
	defer SetQuiet(false)

	Infof("should not appear")
	assert.Empty(t, buf.String())
}

func TestErrorfAlwaysWritesEvenWhenQuiet(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetQuiet(true)
	defer SetQuiet(false)

	Errorf("boom")
	assert.Contains(t, buf.String(), "ERROR boom")
}
