package client

import (
	"time"

	"github.com/spf13/afero"

	"github.com/fivetwenty-io/arium-client/internal/constants"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// Options carries the behaviour shared by the resource clients.
type Options struct {
	Logger arium.Logger
	Retry  RetryOptions
	// Sleep is used by pollers; retries use Retry.Sleep.
	Sleep SleepFunc
	// Fs is where exports are written and imports are read from.
	Fs     afero.Fs
	Events arium.EventPublisher

	UploadPollInterval time.Duration
	JobPollInterval    time.Duration
	CalcPollInterval   time.Duration
	PollTimeout        time.Duration
}

// DefaultOptions returns options with the platform's default timings, the OS
// filesystem and no logging.
func DefaultOptions() *Options {
	return &Options{
		Logger:             arium.NoopLogger{},
		Retry:              DefaultRetryOptions(),
		Fs:                 afero.NewOsFs(),
		UploadPollInterval: constants.UploadPollInterval,
		JobPollInterval:    constants.JobPollInterval,
		CalcPollInterval:   constants.CalcPollInterval,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o *Options) withDefaults() *Options {
	defaults := DefaultOptions()
	if o == nil {
		return defaults
	}

	out := *o

	if out.Logger == nil {
		out.Logger = defaults.Logger
	}

	if out.Retry.MaxAttempts == 0 && out.Retry.BaseDelay == 0 {
		sleep := out.Retry.Sleep
		out.Retry = defaults.Retry
		out.Retry.Sleep = sleep
	}

	if out.Retry.BaseDelay == 0 {
		out.Retry.BaseDelay = defaults.Retry.BaseDelay
	}

	out.Retry.Logger = out.Logger

	if out.Fs == nil {
		out.Fs = defaults.Fs
	}

	if out.UploadPollInterval == 0 {
		out.UploadPollInterval = defaults.UploadPollInterval
	}

	if out.JobPollInterval == 0 {
		out.JobPollInterval = defaults.JobPollInterval
	}

	if out.CalcPollInterval == 0 {
		out.CalcPollInterval = defaults.CalcPollInterval
	}

	return &out
}

func (o *Options) retry(name string) RetryOptions {
	retry := o.Retry
	retry.Name = name

	return retry
}
