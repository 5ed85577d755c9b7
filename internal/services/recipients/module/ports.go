package module

import "ghdigest/internal/services/recipients/domain"

// Ports defines recipients module ports exposed via the registry
type Ports struct {
	Reader      domain.ReaderPort
	Scanner     domain.ScannerPort
	Preferences domain.PreferencesPort
}
