package service

// FieldPermission states who may edit one application field. The table is
// static on purpose: every enforcement point reads the same truth instead of
// re-deriving per-role field lists.
type FieldPermission struct {
	OwnerCanEdit bool
	AdminCanEdit bool
}

// fieldPermissions enumerates every editable application field. Status and
// reviewNote are absent: they only change through the review service.
var fieldPermissions = map[string]FieldPermission{
	"title":         {OwnerCanEdit: true, AdminCanEdit: true},
	"description":   {OwnerCanEdit: true, AdminCanEdit: true},
	"technicalDesc": {OwnerCanEdit: true, AdminCanEdit: true},
	"projectType":   {OwnerCanEdit: true, AdminCanEdit: true},
	"duration":      {OwnerCanEdit: true, AdminCanEdit: true},
	"cost":          {OwnerCanEdit: true, AdminCanEdit: true},
	"documentLink":  {OwnerCanEdit: true, AdminCanEdit: true},
}

// canEditField reports whether the actor may edit the named field on an
// application owned by ownerID.
func canEditField(field string, actor Actor, ownerID uint) bool {
	permission, known := fieldPermissions[field]
	if !known {
		return false
	}

	if actor.IsAdmin() {
		return permission.AdminCanEdit
	}
	if actor.ID == ownerID {
		return permission.OwnerCanEdit
	}
	return false
}
