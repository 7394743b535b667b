package domain

// Capability represents a specific permitted action
type Capability string

const (
	// Lead capabilities
	CapabilityLeadsRead   Capability = "leads:read"
	CapabilityLeadsWrite  Capability = "leads:write"
	CapabilityLeadsCancel Capability = "leads:cancel"

	// Invoice capabilities
	CapabilityInvoicesRead    Capability = "invoices:read"
	CapabilityInvoicesWrite   Capability = "invoices:write"
	CapabilityInvoicesPayment Capability = "invoices:payment"

	// Staff management capabilities
	CapabilityStaffRead   Capability = "staff:read"
	CapabilityStaffManage Capability = "staff:manage"

	// Reports and dashboard
	CapabilityReportsView Capability = "reports:view"

	// Attachments
	CapabilityFilesRead  Capability = "files:read"
	CapabilityFilesWrite Capability = "files:write"
)

// NavSurface is a navigation surface name the UI may render for a role
type NavSurface string

const (
	NavDashboard NavSurface = "dashboard"
	NavLeads     NavSurface = "leads"
	NavFollowUps NavSurface = "follow_ups"
	NavInvoices  NavSurface = "invoices"
	NavStaff     NavSurface = "staff"
	NavReports   NavSurface = "reports"
)

// roleCapabilities is the static per-role capability allow-list.
// Checked centrally (auth middleware / handlers), never re-derived per surface.
var roleCapabilities = map[StaffRole][]Capability{
	RoleAdmin: {
		CapabilityLeadsRead, CapabilityLeadsWrite, CapabilityLeadsCancel,
		CapabilityInvoicesRead, CapabilityInvoicesWrite, CapabilityInvoicesPayment,
		CapabilityStaffRead, CapabilityStaffManage,
		CapabilityReportsView,
		CapabilityFilesRead, CapabilityFilesWrite,
	},
	RoleManager: {
		CapabilityLeadsRead, CapabilityLeadsWrite, CapabilityLeadsCancel,
		CapabilityInvoicesRead, CapabilityInvoicesWrite, CapabilityInvoicesPayment,
		CapabilityStaffRead,
		CapabilityReportsView,
		CapabilityFilesRead, CapabilityFilesWrite,
	},
	RoleTechnician: {
		CapabilityLeadsRead, CapabilityLeadsWrite,
		CapabilityInvoicesRead,
		CapabilityFilesRead, CapabilityFilesWrite,
	},
	RoleReceptionist: {
		CapabilityLeadsRead, CapabilityLeadsWrite,
		CapabilityInvoicesRead, CapabilityInvoicesWrite,
		CapabilityFilesRead, CapabilityFilesWrite,
	},
}

// roleNavigation maps each role to the navigation surfaces it may see
var roleNavigation = map[StaffRole][]NavSurface{
	RoleAdmin:        {NavDashboard, NavLeads, NavFollowUps, NavInvoices, NavStaff, NavReports},
	RoleManager:      {NavDashboard, NavLeads, NavFollowUps, NavInvoices, NavStaff, NavReports},
	RoleTechnician:   {NavLeads, NavFollowUps},
	RoleReceptionist: {NavLeads, NavFollowUps, NavInvoices},
}

// RoleHasCapability checks if a role grants a capability by default
func RoleHasCapability(role StaffRole, capability Capability) bool {
	for _, c := range roleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// CapabilitiesForRole returns the capability set granted to a role
func CapabilitiesForRole(role StaffRole) []Capability {
	caps := roleCapabilities[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

// NavigationForRole returns the navigation surfaces a role may see
func NavigationForRole(role StaffRole) []NavSurface {
	nav := roleNavigation[role]
	out := make([]NavSurface, len(nav))
	copy(out, nav)
	return out
}
