package logger

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestNewFollowsGlobalLevel(t *testing.T) {
	prev := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(prev) })

	log.SetLevel(log.DebugLevel)
	l := New("index")
	assert.Equal(t, log.DebugLevel, l.GetLevel())
	assert.Equal(t, "index", l.GetPrefix())

	log.SetLevel(log.WarnLevel)
	assert.Equal(t, log.WarnLevel, New("fetch").GetLevel())
}

func TestNewWithConfig(t *testing.T) {
	l := NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter)
	assert.Equal(t, log.InfoLevel, l.GetLevel())
	assert.Empty(t, l.GetPrefix())
}
