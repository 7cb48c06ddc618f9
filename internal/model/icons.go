package model

// Version of the qstrgen tools.
const Version = "0.4.1"

// Centralized icons for the UI components
// Using simple single-width characters for consistent terminal rendering
const (
	IconUnconditional = "●" // Always emitted
	IconGuarded       = "◇" // Single guard
	IconMultiGuard    = "≡" // Several #elif branches
	IconSentinel      = "∅" // Fixed first record
	IconSite          = "→"
)
