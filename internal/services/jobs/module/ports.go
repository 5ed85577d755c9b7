package module

import "ghdigest/internal/services/jobs/domain"

// Ports defines jobs module ports exposed via the registry
type Ports struct {
	Enqueuer domain.EnqueuerPort
	Runner   domain.RunnerPort
}
