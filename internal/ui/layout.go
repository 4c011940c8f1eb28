package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// CardMaxWidth caps the width of the swipe card and the detail panel.
	CardMaxWidth = 72

	// CardDescriptionLines is how many description lines a card shows.
	CardDescriptionLines = 6
)

// Timing constants.
const (
	// DefaultUIInterval is how often the model re-reads the queue snapshot.
	DefaultUIInterval = 250 * time.Millisecond

	// CountsTimeout bounds the onboarding count requests.
	CountsTimeout = 15 * time.Second

	// FlashDuration is how long a status message stays in the command bar.
	FlashDuration = 4 * time.Second
)
