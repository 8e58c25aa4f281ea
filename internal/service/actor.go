package service

import (
	"github.com/prop-ie/snag-api/internal/models"
	"github.com/prop-ie/snag-api/internal/repository"
)

// Actor identifies the authenticated caller of a mutating operation.
type Actor struct {
	ID        string
	Role      models.UserRole
	IP        string
	UserAgent string
}

func (a Actor) audit() repository.AuditActor {
	return repository.AuditActor{UserID: a.ID, IPAddress: a.IP, UserAgent: a.UserAgent}
}
