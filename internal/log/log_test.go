package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel(LevelInfo)

	tests := []struct {
		in   string
		want string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{"verbose", "info"},
		{"", "info"},
	}
	for _, tt := range tests {
		SetLevel(tt.in)
		assert.Equal(t, tt.want, Level(), "SetLevel(%q)", tt.in)
	}
}

func TestPackageHelpersDoNotPanic(t *testing.T) {
	SetLevel(LevelError)
	defer SetLevel(LevelInfo)

	assert.NotPanics(t, func() {
		Debugf("debug %d", 1)
		Infof("info %s", "x")
		Warnf("warn")
	})
}
