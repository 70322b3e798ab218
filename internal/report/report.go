package report

import (
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter is the error-reporting sink contract used by the registration
// service for unexpected storage failures.
type Reporter interface {
	Report(err error, action string, context map[string]any)
}

// LogReporter is the fallback sink when no Sentry DSN is configured.
type LogReporter struct{}

func (LogReporter) Report(err error, action string, context map[string]any) {
	log.Printf("ERROR [%s]: %v (context: %v)", action, err, context)
}

// SentryReporter forwards exceptions to Sentry with action and input tags.
type SentryReporter struct{}

func NewSentry(dsn string) (*SentryReporter, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	return &SentryReporter{}, nil
}

func (*SentryReporter) Report(err error, action string, context map[string]any) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_type", "registration")
		scope.SetTag("action_name", action)
		scope.SetContext("clientInput", sentry.Context(context))
		sentry.CaptureException(err)
	})
}

// Flush drains pending events; call before process exit.
func (*SentryReporter) Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
