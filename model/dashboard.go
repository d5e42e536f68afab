package model

// DashboardStats are the headline KPIs.
type DashboardStats struct {
	ActiveReservations int     `json:"activeReservations"`
	PendingCleaning    int     `json:"pendingCleaning"`
	TaskIssues         int     `json:"taskIssues"`
	TotalProperties    int     `json:"totalProperties"`
	OccupancyRate      float64 `json:"occupancyRate,omitempty"`
	TotalRevenue       float64 `json:"totalRevenue,omitempty"`
}

// UpcomingCheckIn is a reservation arriving within the next week.
type UpcomingCheckIn struct {
	ID           string `json:"id"`
	PropertyID   string `json:"property_id"`
	GuestName    string `json:"guest_name"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
	Platform     string `json:"platform"`
	Status       string `json:"status"`
	PropertyName string `json:"property_name"`
	CheckInTime  string `json:"check_in_time"`
}

// TodayCleaningJob is a cleaning job scheduled today, enriched with the property name.
type TodayCleaningJob struct {
	CleaningJob
	PropertyName string `json:"property_name"`
}

// Activity is one line of the recent activity feed.
type Activity struct {
	Type        string `json:"type"`
	Property    string `json:"property"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// OccupancyPoint is the occupancy rate for one day.
type OccupancyPoint struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// RevenuePoint is revenue and payout for one day.
type RevenuePoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Payout  float64 `json:"payout"`
}

// BookingSource aggregates bookings per platform.
type BookingSource struct {
	Name    string  `json:"name"`
	Value   int     `json:"value"`
	Revenue float64 `json:"revenue"`
}

// PropertyPerformance ranks a property by revenue.
type PropertyPerformance struct {
	Name     string  `json:"name"`
	Revenue  float64 `json:"revenue"`
	Bookings int     `json:"bookings"`
}

// PriorityBucket is one cell of the task priority matrix.
type PriorityBucket struct {
	Label       string `json:"label"`
	Count       int    `json:"count"`
	FilterParam string `json:"filterParam"`
}
