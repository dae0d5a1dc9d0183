package rbac

import "github.com/jwalitptl/clinic-api/internal/model"

// Operation is a CRUD verb
type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

var Operations = []Operation{OpRead, OpCreate, OpUpdate, OpDelete}

const (
	admin        = model.RoleAdmin
	doctor       = model.RoleDoctor
	nurse        = model.RoleNurse
	receptionist = model.RoleReceptionist
)

func roles(rs ...model.Role) map[model.Role]bool {
	m := make(map[model.Role]bool, len(rs))
	for _, r := range rs {
		m[r] = true
	}
	return m
}

// policy maps collection -> operation -> roles granted. An operation missing
// from a collection has no route at all.
var policy = map[string]map[Operation]map[model.Role]bool{
	model.CollectionPatients: {
		OpRead:   roles(admin, doctor, nurse, receptionist),
		OpCreate: roles(admin, receptionist),
		OpUpdate: roles(admin, doctor, nurse, receptionist),
		OpDelete: roles(admin),
	},
	model.CollectionAppointments: {
		OpRead:   roles(admin, doctor, nurse, receptionist),
		OpCreate: roles(admin, receptionist, doctor),
		OpUpdate: roles(admin, doctor, receptionist),
		OpDelete: roles(admin, receptionist),
	},
	model.CollectionBilling: {
		OpRead:   roles(admin, receptionist),
		OpCreate: roles(admin, receptionist),
		OpUpdate: roles(admin, receptionist),
	},
	model.CollectionPharmacy: {
		OpRead:   roles(admin, doctor, nurse),
		OpCreate: roles(admin),
		OpUpdate: roles(admin),
	},
	model.CollectionPrescriptions: {
		OpRead:   roles(admin, doctor, nurse),
		OpCreate: roles(admin, doctor),
	},
	model.CollectionSettings: {
		OpRead:   roles(admin),
		OpUpdate: roles(admin),
	},
	model.CollectionUsers: {
		OpRead:   roles(admin),
		OpCreate: roles(admin),
	},
}

// Allowed reports whether role may perform op on collection. Anything not
// listed is denied.
func Allowed(collection string, op Operation, role model.Role) bool {
	ops, ok := policy[collection]
	if !ok {
		return false
	}
	return ops[op][role]
}

// Supports reports whether op is exposed for collection at all.
func Supports(collection string, op Operation) bool {
	_, ok := policy[collection][op]
	return ok
}
