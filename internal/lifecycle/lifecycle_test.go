package lifecycle

import (
	"testing"
	"time"

	"github.com/shenikar/surakshita/internal/models"
	"github.com/shenikar/surakshita/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func newTestMachine() *Machine {
	return New(func() time.Time { return fixedNow })
}

func TestNewSOS_ForcesHighAlert(t *testing.T) {
	m := newTestMachine()

	inc := m.NewSOS(7, "", "", 12.9716, 77.5946)
	assert.Equal(t, models.StatusHighAlert, inc.Status.Kind)
	assert.Equal(t, models.PriorityCritical, inc.Priority)
	assert.True(t, inc.IsSOS)
	assert.Equal(t, DefaultSOSType, inc.IncidentType)
	assert.Equal(t, DefaultSOSDescription, inc.Description)

	custom := m.NewSOS(7, "Assault", "being followed", 12.9716, 77.5946)
	assert.Equal(t, models.StatusHighAlert, custom.Status.Kind)
	assert.Equal(t, models.PriorityCritical, custom.Priority)
	assert.Equal(t, "Assault", custom.IncidentType)
}

func TestNewReport_StartsPending(t *testing.T) {
	inc := newTestMachine().NewReport(3, "Theft", "phone snatched", 19.076, 72.8777)

	assert.Equal(t, models.StatusPending, inc.Status.Kind)
	assert.Equal(t, models.PriorityNormal, inc.Priority)
	assert.False(t, inc.IsSOS)
	assert.Equal(t, int64(3), inc.OwnerID)
}

func TestOwnerToggle(t *testing.T) {
	m := newTestMachine()

	toResolved, err := m.OwnerToggle(5, models.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, []models.StatusKind{models.StatusPending}, toResolved.From())
	owner, scoped := toResolved.OwnerID()
	assert.True(t, scoped)
	assert.Equal(t, int64(5), owner)
	assert.Equal(t, fixedNow, toResolved.At())

	toPending, err := m.OwnerToggle(5, models.StatusPending)
	require.NoError(t, err)
	assert.True(t, toPending.NonSOSOnly())
	assert.Equal(t, models.PriorityNormal, toPending.Priority(false))

	for _, target := range []models.StatusKind{models.StatusDispatched, models.StatusHighAlert, "Closed"} {
		_, err := m.OwnerToggle(5, target)
		assert.ErrorIs(t, err, e.ErrInvalidInput, string(target))
	}

	_, err = m.OwnerToggle(0, models.StatusResolved)
	assert.ErrorIs(t, err, e.ErrUnauthenticated)
}

func TestTransition_Permits(t *testing.T) {
	m := newTestMachine()
	toResolved, _ := m.OwnerToggle(5, models.StatusResolved)
	toPending, _ := m.OwnerToggle(5, models.StatusPending)

	pending := &models.Incident{OwnerID: 5, Status: models.Status{Kind: models.StatusPending}}
	resolved := &models.Incident{OwnerID: 5, Status: models.Status{Kind: models.StatusResolved}}
	resolvedSOS := &models.Incident{OwnerID: 5, IsSOS: true, Status: models.Status{Kind: models.StatusResolved}}
	foreign := &models.Incident{OwnerID: 9, Status: models.Status{Kind: models.StatusPending}}
	alert := &models.Incident{OwnerID: 5, IsSOS: true, Status: models.Status{Kind: models.StatusHighAlert}}

	assert.True(t, toResolved.Permits(pending))
	assert.False(t, toResolved.Permits(foreign))
	assert.False(t, toResolved.Permits(alert))
	assert.True(t, toPending.Permits(resolved))
	assert.False(t, toPending.Permits(resolvedSOS))
	assert.False(t, toPending.Permits(nil))

	resolve := m.Resolve()
	assert.True(t, resolve.Permits(alert))
	assert.True(t, resolve.Permits(foreign))
	assert.False(t, resolve.Permits(resolved))
}

func TestDispatch(t *testing.T) {
	m := newTestMachine()

	tr, err := m.Dispatch(models.UnitAmbulance)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDispatched, tr.To().Kind)
	assert.Equal(t, models.UnitAmbulance, tr.To().Unit)
	assert.Equal(t, "Ambulance dispatched at 2026-10-14T09:30:00Z", tr.To().Note)
	assert.Equal(t, "Dispatched: Ambulance", tr.To().String())
	assert.Equal(t, models.PriorityCritical, tr.Priority(false))
	_, scoped := tr.OwnerID()
	assert.False(t, scoped)

	redispatch := &models.Incident{Status: models.Status{Kind: models.StatusDispatched, Unit: models.UnitPolice}}
	assert.True(t, tr.Permits(redispatch))
	assert.False(t, tr.Permits(&models.Incident{Status: models.Status{Kind: models.StatusResolved}}))

	_, err = m.Dispatch("helicopter")
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestRejected(t *testing.T) {
	m := newTestMachine()
	tr, _ := m.Dispatch(models.UnitFire)
	err := Rejected(tr, &models.Incident{Status: models.Status{Kind: models.StatusResolved}})

	assert.ErrorIs(t, err, e.ErrInvalidInput)
	assert.Contains(t, e.Reason(err), "Resolved")
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, models.PriorityNormal, PriorityFor(models.StatusPending, false))
	assert.Equal(t, models.PriorityNormal, PriorityFor(models.StatusResolved, false))
	assert.Equal(t, models.PriorityCritical, PriorityFor(models.StatusResolved, true))
	assert.Equal(t, models.PriorityCritical, PriorityFor(models.StatusDispatched, false))
	assert.Equal(t, models.PriorityCritical, PriorityFor(models.StatusHighAlert, false))
}
