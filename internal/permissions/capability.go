package permissions

// Capability names one thing a role may be allowed to do.
type Capability int

const (
	ViewDashboard Capability = iota
	ManageStudents
	MarkAttendance
	ManageCourses
	ScheduleServices
	ManageVisitations
	ViewReports
	ExportData
	ImportData
	ManageUsers
	ChangeSettings
	DeleteRecords
	ViewAuditLog

	capabilityCount
)

var capabilityNames = [capabilityCount]string{
	ViewDashboard:     "canViewDashboard",
	ManageStudents:    "canManageStudents",
	MarkAttendance:    "canMarkAttendance",
	ManageCourses:     "canManageCourses",
	ScheduleServices:  "canScheduleServices",
	ManageVisitations: "canManageVisitations",
	ViewReports:       "canViewReports",
	ExportData:        "canExportData",
	ImportData:        "canImportData",
	ManageUsers:       "canManageUsers",
	ChangeSettings:    "canChangeSettings",
	DeleteRecords:     "canDeleteRecords",
	ViewAuditLog:      "canViewAuditLog",
}

// Capabilities lists every capability in declaration order.
func Capabilities() []Capability {
	out := make([]Capability, 0, capabilityCount)
	for c := Capability(0); c < capabilityCount; c++ {
		out = append(out, c)
	}
	return out
}

func (c Capability) Valid() bool {
	return c >= 0 && c < capabilityCount
}

// String returns the stable capability name, e.g. "canManageUsers".
func (c Capability) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return capabilityNames[c]
}

// ParseCapability maps a stable name back to its Capability.
func ParseCapability(name string) (Capability, bool) {
	for c, n := range capabilityNames {
		if n == name {
			return Capability(c), true
		}
	}
	return 0, false
}
