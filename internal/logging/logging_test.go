package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/openaleph/openaleph-search/internal/settings"
)

func TestConfigureSetsTraceLevel(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	Configure(&settings.Settings{}, false, true)
	assert.Equal(t, logrus.TraceLevel, logrus.GetLevel())
}

func TestConfigureSetsDebugLevelWhenTraceIsOff(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	Configure(&settings.Settings{}, true, false)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

func TestConfigureLeavesLevelUnchangedWithoutFlags(t *testing.T) {
	logrus.SetLevel(logrus.WarnLevel)
	defer logrus.SetLevel(logrus.InfoLevel)
	Configure(&settings.Settings{}, false, false)
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
}

func TestConfigureSkipsSlackHookWithoutConfiguredChannel(t *testing.T) {
	hooksBefore := len(logrus.StandardLogger().Hooks[logrus.InfoLevel])
	Configure(&settings.Settings{SlackHookURL: "https://hooks.slack.test/x"}, false, false)
	hooksAfter := len(logrus.StandardLogger().Hooks[logrus.InfoLevel])
	assert.Equal(t, hooksBefore, hooksAfter)
}
