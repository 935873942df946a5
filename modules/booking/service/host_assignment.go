package service

import (
	"context"
	"time"

	"fqt-booking-api/core/errors"
	"fqt-booking-api/core/logger"
	catalogentity "fqt-booking-api/modules/catalog/entity"

	"github.com/google/uuid"
)

// HostPoolStore lists the eligible staff for a service type.
type HostPoolStore interface {
	ListActiveHosts(ctx context.Context, serviceTypeID uuid.UUID) ([]catalogentity.ServiceHost, error)
}

// HostLoadStore reports the confirmed-booking count per host for a date.
type HostLoadStore interface {
	CountConfirmedByHost(ctx context.Context, date time.Time) (map[string]int, error)
}

// HostAssigner picks the least-loaded host for a date, breaking ties by
// email so the choice is deterministic. An empty pool is a typed outcome,
// not an assignment of "".
type HostAssigner struct {
	pool  HostPoolStore
	loads HostLoadStore
}

func NewHostAssigner(pool HostPoolStore, loads HostLoadStore) *HostAssigner {
	return &HostAssigner{pool: pool, loads: loads}
}

// AssignHost picks a host for the (service type, company, date) of a slot.
// The pool is per service type; company only contextualizes the decision in
// the logs, since hosts serve every partner company today.
func (a *HostAssigner) AssignHost(ctx context.Context, serviceTypeID, companyID uuid.UUID, date time.Time) (string, *errors.AppError) {
	hosts, err := a.pool.ListActiveHosts(ctx, serviceTypeID)
	if err != nil {
		logger.Error("HostAssigner:AssignHost:ListActiveHosts:Error", "error", err, "service_type_id", serviceTypeID)
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to load host pool", err)
	}
	if len(hosts) == 0 {
		logger.Warn("HostAssigner:AssignHost:EmptyPool",
			"service_type_id", serviceTypeID, "company_id", companyID)
		return "", errors.NewAppError(errors.ErrNoHostAvailable, "no hosts configured for service", nil)
	}

	loads, err := a.loads.CountConfirmedByHost(ctx, date)
	if err != nil {
		logger.Error("HostAssigner:AssignHost:CountConfirmedByHost:Error", "error", err)
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to load host assignments", err)
	}

	// Hosts arrive ordered by email, so walking in order and keeping the
	// strict minimum gives the alphabetical tie-break for free.
	best := ""
	bestLoad := -1
	for _, host := range hosts {
		load := loads[host.HostEmail]
		if bestLoad == -1 || load < bestLoad {
			best = host.HostEmail
			bestLoad = load
		}
	}

	logger.Info("HostAssigner:AssignHost:Selected",
		"host_email", best, "load", bestLoad,
		"company_id", companyID, "date", date.Format("2006-01-02"))
	return best, nil
}
