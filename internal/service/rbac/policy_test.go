package rbac

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-api/internal/model"
)

func TestAllowed_Table(t *testing.T) {
	type row struct {
		read, create, update, delete []model.Role
	}
	all := []model.Role{admin, doctor, nurse, receptionist}
	want := map[string]row{
		model.CollectionPatients:      {all, []model.Role{admin, receptionist}, all, []model.Role{admin}},
		model.CollectionAppointments:  {all, []model.Role{admin, receptionist, doctor}, []model.Role{admin, doctor, receptionist}, []model.Role{admin, receptionist}},
		model.CollectionBilling:       {[]model.Role{admin, receptionist}, []model.Role{admin, receptionist}, []model.Role{admin, receptionist}, nil},
		model.CollectionPharmacy:      {[]model.Role{admin, doctor, nurse}, []model.Role{admin}, []model.Role{admin}, nil},
		model.CollectionPrescriptions: {[]model.Role{admin, doctor, nurse}, []model.Role{admin, doctor}, nil, nil},
		model.CollectionSettings:      {[]model.Role{admin}, nil, []model.Role{admin}, nil},
		model.CollectionUsers:         {[]model.Role{admin}, []model.Role{admin}, nil, nil},
	}

	contains := func(rs []model.Role, r model.Role) bool {
		for _, x := range rs {
			if x == r {
				return true
			}
		}
		return false
	}

	collections := make([]string, 0, len(want))
	for c := range want {
		collections = append(collections, c)
	}
	sort.Strings(collections)

	for _, collection := range collections {
		r := want[collection]
		cells := map[Operation][]model.Role{OpRead: r.read, OpCreate: r.create, OpUpdate: r.update, OpDelete: r.delete}
		for _, op := range Operations {
			granted := cells[op]
			t.Run(fmt.Sprintf("%s/%s", collection, op), func(t *testing.T) {
				assert.Equal(t, granted != nil, Supports(collection, op), "supported")
				for _, role := range all {
					assert.Equal(t, contains(granted, role), Allowed(collection, op, role), string(role))
				}
			})
		}
	}
}

func TestAllowed_FailClosed(t *testing.T) {
	assert.False(t, Allowed("sessions", OpRead, admin))
	assert.False(t, Allowed("notifications", OpRead, admin))
	assert.False(t, Allowed(model.CollectionPatients, "purge", admin))
	assert.False(t, Allowed(model.CollectionPatients, OpRead, "janitor"))
	assert.False(t, Allowed(model.CollectionPatients, OpRead, ""))
	assert.False(t, Supports("sessions", OpRead))
}
