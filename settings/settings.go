// Package settings exposes the user-facing configuration consumed by the
// translation pipeline. The pipeline reads a snapshot at the start of each
// run and never mutates it.
package settings

import "github.com/overlens-project/overlens/pkg/env"

// Mode selects the translation backend.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// Settings is a read-only snapshot of the current user configuration.
type Settings struct {
	// Target language code for translation. E.g., "zh"
	TargetLanguage string

	// Selected translation backend.
	Mode Mode

	// Index of the display to capture.
	DisplayIndex int

	// Whether the accelerated image filter may be used.
	Acceleration bool
}

// Store provides the current settings snapshot.
type Store interface {
	Current() Settings
}

type envStore struct{}

// NewEnvStore returns a Store backed by environment variables. Values are
// re-read on every call so external changes take effect on the next run.
func NewEnvStore() Store {
	return envStore{}
}

func (envStore) Current() Settings {
	mode := ModeOnline
	if Mode(env.StringVariable("OVERLENS_MODE", string(ModeOnline))) == ModeOffline {
		mode = ModeOffline
	}
	return Settings{
		TargetLanguage: env.StringVariable("OVERLENS_TARGET_LANGUAGE", "zh"),
		Mode:           mode,
		DisplayIndex:   env.IntVariable("OVERLENS_DISPLAY", 0),
		Acceleration:   env.BoolVariable("OVERLENS_ACCELERATION", true),
	}
}
