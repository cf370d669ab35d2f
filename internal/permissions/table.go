package permissions

// Set is the full capability record of one role.
type Set struct {
	ViewDashboard     bool
	ManageStudents    bool
	MarkAttendance    bool
	ManageCourses     bool
	ScheduleServices  bool
	ManageVisitations bool
	ViewReports       bool
	ExportData        bool
	ImportData        bool
	ManageUsers       bool
	ChangeSettings    bool
	DeleteRecords     bool
	ViewAuditLog      bool
}

// Has reports whether the set grants c. Unknown capabilities are denied.
func (s Set) Has(c Capability) bool {
	switch c {
	case ViewDashboard:
		return s.ViewDashboard
	case ManageStudents:
		return s.ManageStudents
	case MarkAttendance:
		return s.MarkAttendance
	case ManageCourses:
		return s.ManageCourses
	case ScheduleServices:
		return s.ScheduleServices
	case ManageVisitations:
		return s.ManageVisitations
	case ViewReports:
		return s.ViewReports
	case ExportData:
		return s.ExportData
	case ImportData:
		return s.ImportData
	case ManageUsers:
		return s.ManageUsers
	case ChangeSettings:
		return s.ChangeSettings
	case DeleteRecords:
		return s.DeleteRecords
	case ViewAuditLog:
		return s.ViewAuditLog
	}
	return false
}

// Granted lists the capabilities present in s.
func (s Set) Granted() []Capability {
	var out []Capability
	for _, c := range Capabilities() {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

var table = map[Role]Set{
	Admin: {
		ViewDashboard:     true,
		ManageStudents:    true,
		MarkAttendance:    true,
		ManageCourses:     true,
		ScheduleServices:  true,
		ManageVisitations: true,
		ViewReports:       true,
		ExportData:        true,
		ImportData:        true,
		ManageUsers:       true,
		ChangeSettings:    true,
		DeleteRecords:     true,
		ViewAuditLog:      true,
	},
	Servant: {
		ViewDashboard:     true,
		ManageStudents:    true,
		MarkAttendance:    true,
		ManageCourses:     true,
		ScheduleServices:  true,
		ManageVisitations: true,
		ViewReports:       true,
		ExportData:        true,
		ImportData:        true,
	},
	Viewer: {
		ViewDashboard: true,
		ViewReports:   true,
	},
}

// For returns the capability set of role. The zero Set and false are
// returned for an unknown role.
func For(role Role) (Set, bool) {
	s, ok := table[role]
	return s, ok
}

// HasPermission reports whether role grants capability.
func HasPermission(role Role, capability Capability) bool {
	s, ok := table[role]
	if !ok {
		return false
	}
	return s.Has(capability)
}

// HasPermissionNamed is HasPermission for untyped input such as command
// arguments. Unknown roles or capability names yield false.
func HasPermissionNamed(role, capability string) bool {
	c, ok := ParseCapability(capability)
	if !ok {
		return false
	}
	return HasPermission(Role(role), c)
}

// CanWrite reports whether role may modify any roster content.
func CanWrite(role Role) bool {
	return HasPermission(role, ManageStudents) ||
		HasPermission(role, MarkAttendance) ||
		HasPermission(role, ManageCourses)
}

func IsAdmin(role Role) bool {
	return role == Admin
}
