package translate

import "context"

// Availability reports whether an on-device language pair can be used.
type Availability int

const (
	// AvailabilityUnsupported means the device cannot translate this pair.
	AvailabilityUnsupported Availability = iota
	// AvailabilityInstallable means the pair is supported but its language
	// pack is not installed yet.
	AvailabilityInstallable
	// AvailabilityInstalled means the pair is ready to translate.
	AvailabilityInstalled
)

// LanguagePair identifies source and target locales for the on-device
// backend.
type LanguagePair struct {
	Source string
	Target string
}

// Session is the on-device translation collaborator. Sessions are stateful
// and single-flight: Translate must not be called concurrently and is only
// valid after Query reports an installed pair.
type Session interface {
	Query(ctx context.Context, pair LanguagePair) (Availability, error)
	Download(ctx context.Context, pair LanguagePair) error
	Translate(ctx context.Context, pair LanguagePair, text string) (string, error)
}

// Decision is the user's choice at the installable-pair decision point.
type Decision int

const (
	// DecisionFallbackOnline translates this batch with the online backend.
	DecisionFallbackOnline Decision = iota
	// DecisionDownload installs the language pack, then translates on device.
	DecisionDownload
	// DecisionCancel abandons the batch.
	DecisionCancel
)

// DecisionFunc resolves the installable-pair decision point. A nil func
// falls back to the online path.
type DecisionFunc func(pair LanguagePair) Decision
