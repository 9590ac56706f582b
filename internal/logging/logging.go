// Package logging configures the process-wide logrus logger, grounded on
// the teacher's `app/config/config.go: InitializeConfiguration` /
// `InitSlack`.
package logging

import (
	"github.com/johntdyer/slackrus"
	"github.com/sirupsen/logrus"

	"github.com/openaleph/openaleph-search/internal/settings"
)

// Configure sets the logrus level from debug/trace flags and, when a Slack
// webhook is configured, adds a hook posting info-level-or-above records to
// it -- exactly `InitSlack`'s pattern, generalized to this service's name.
func Configure(s *settings.Settings, debug, trace bool) {
	if trace {
		logrus.SetLevel(logrus.TraceLevel)
	} else if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if s.SlackHookURL != "" && s.SlackChannel != "" {
		logrus.AddHook(&slackrus.SlackrusHook{
			HookURL:        s.SlackHookURL,
			AcceptedLevels: slackrus.LevelThreshold(logrus.InfoLevel),
			Channel:        s.SlackChannel,
			IconEmoji:      ":mag:",
			Username:       "openaleph-search",
		})
	}
}
