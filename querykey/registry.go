package querykey

// Resource names, the root segment of every key.
const (
	ResourceProperties   = "properties"
	ResourceReservations = "reservations"
	ResourceTasks        = "tasks"
	ResourceCleaning     = "cleaning"
	ResourceDashboard    = "dashboard"
)

// Registries. Each method is a pure function of its arguments.
var (
	Properties   = properties{}
	Reservations = reservations{}
	Tasks        = tasks{}
	Cleaning     = cleaning{}
	Dashboard    = dashboard{}
)

type properties struct{}

func (properties) All() Key { return New(ResourceProperties) }

func (properties) Detail(id string) Key { return New(ResourceProperties, id) }

type reservations struct{}

func (reservations) All() Key { return New(ResourceReservations) }

func (reservations) Detail(id string) Key { return New(ResourceReservations, id) }

func (reservations) ByProperty(propertyID string) Key {
	return New(ResourceReservations, "property", propertyID)
}

func (reservations) ByDateRange(from, to string) Key {
	return New(ResourceReservations, "dateRange", from, to)
}

type tasks struct{}

func (tasks) All() Key { return New(ResourceTasks) }

func (tasks) ByProperty(propertyID string) Key {
	return New(ResourceTasks, "property", propertyID)
}

func (tasks) ByStatus(status string) Key {
	return New(ResourceTasks, "status", status)
}

type cleaning struct{}

func (cleaning) All() Key { return New(ResourceCleaning) }

func (cleaning) ByDate(date string) Key {
	return New(ResourceCleaning, "date", date)
}

func (cleaning) ByProperty(propertyID string) Key {
	return New(ResourceCleaning, "property", propertyID)
}

type dashboard struct{}

// All is the ancestor of every dashboard widget key.
func (dashboard) All() Key { return New(ResourceDashboard) }

func (dashboard) Stats() Key { return New(ResourceDashboard, "stats") }

func (dashboard) UpcomingCheckIns() Key { return New(ResourceDashboard, "upcoming-checkins") }

func (dashboard) TodayCleaning() Key { return New(ResourceDashboard, "today-cleaning") }

func (dashboard) RecentActivity() Key { return New(ResourceDashboard, "recent-activity") }

func (dashboard) OccupancyTrends() Key { return New(ResourceDashboard, "occupancy-trends") }

func (dashboard) RevenueTrends() Key { return New(ResourceDashboard, "revenue-trends") }

func (dashboard) BookingSources() Key { return New(ResourceDashboard, "booking-sources") }

func (dashboard) PropertyPerformance() Key { return New(ResourceDashboard, "property-performance") }

func (dashboard) TaskPriority() Key { return New(ResourceDashboard, "task-priority") }
