package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fqt-booking-api/core/errors"
	catalogentity "fqt-booking-api/modules/catalog/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hostPoolStub struct {
	hosts []catalogentity.ServiceHost
	err   error
}

func (s *hostPoolStub) ListActiveHosts(_ context.Context, _ uuid.UUID) ([]catalogentity.ServiceHost, error) {
	return s.hosts, s.err
}

type hostLoadStub struct {
	loads map[string]int
	err   error
}

func (s *hostLoadStub) CountConfirmedByHost(_ context.Context, _ time.Time) (map[string]int, error) {
	return s.loads, s.err
}

// pool builds hosts already ordered by email, the way the store returns them.
func pool(emails ...string) []catalogentity.ServiceHost {
	hosts := make([]catalogentity.ServiceHost, 0, len(emails))
	for _, email := range emails {
		hosts = append(hosts, catalogentity.ServiceHost{ID: uuid.New(), HostEmail: email, Active: true})
	}
	return hosts
}

func TestAssignHostPicksLeastLoaded(t *testing.T) {
	assigner := NewHostAssigner(
		&hostPoolStub{hosts: pool("anna@fqt.org", "ben@fqt.org", "carla@fqt.org")},
		&hostLoadStub{loads: map[string]int{"anna@fqt.org": 2, "ben@fqt.org": 0, "carla@fqt.org": 1}},
	)

	host, appErr := assigner.AssignHost(context.Background(), uuid.New(), uuid.New(), time.Now())
	require.Nil(t, appErr)
	assert.Equal(t, "ben@fqt.org", host)
}

func TestAssignHostTieBreaksAlphabetically(t *testing.T) {
	assigner := NewHostAssigner(
		&hostPoolStub{hosts: pool("anna@fqt.org", "ben@fqt.org", "carla@fqt.org")},
		&hostLoadStub{loads: map[string]int{"anna@fqt.org": 1, "ben@fqt.org": 1, "carla@fqt.org": 1}},
	)

	host, appErr := assigner.AssignHost(context.Background(), uuid.New(), uuid.New(), time.Now())
	require.Nil(t, appErr)
	assert.Equal(t, "anna@fqt.org", host)
}

func TestAssignHostUnbookedHostsCountAsZero(t *testing.T) {
	// A host with no confirmed bookings is simply absent from the load map.
	assigner := NewHostAssigner(
		&hostPoolStub{hosts: pool("anna@fqt.org", "zoe@fqt.org")},
		&hostLoadStub{loads: map[string]int{"anna@fqt.org": 1}},
	)

	host, appErr := assigner.AssignHost(context.Background(), uuid.New(), uuid.New(), time.Now())
	require.Nil(t, appErr)
	assert.Equal(t, "zoe@fqt.org", host)
}

func TestAssignHostEmptyPool(t *testing.T) {
	assigner := NewHostAssigner(&hostPoolStub{}, &hostLoadStub{})

	host, appErr := assigner.AssignHost(context.Background(), uuid.New(), uuid.New(), time.Now())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNoHostAvailable, appErr.Code)
	assert.Empty(t, host)
}

func TestAssignHostStoreErrors(t *testing.T) {
	assigner := NewHostAssigner(
		&hostPoolStub{hosts: pool("anna@fqt.org")},
		&hostLoadStub{err: fmt.Errorf("connection reset")},
	)

	_, appErr := assigner.AssignHost(context.Background(), uuid.New(), uuid.New(), time.Now())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInternalServer, appErr.Code)
}
