// Package collaborator contains HTTP clients for the services the sale saga
// talks to: the processing service (perfume catalog and packaging ledger),
// the log service and the analytics service.
package collaborator

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/perfumery/sales/internal/domain/shared"
)

// maxResponseSize is the maximum allowed collaborator response size (1MB)
const maxResponseSize = 1 * 1024 * 1024

// classifyTransportError maps transport-level failures to the shared
// collaborator error so callers can react uniformly. Timeouts and refused
// connections both mean the collaborator is unavailable.
func classifyTransportError(service string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %s timed out", shared.ErrCollaboratorUnavailable, service)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s timed out", shared.ErrCollaboratorUnavailable, service)
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrCollaboratorUnavailable, service, err)
}
