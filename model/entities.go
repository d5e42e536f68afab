// Package model holds the entity shapes returned by the Workers API.
// The API owns these shapes; the cache layer only relies on stable IDs and
// the Task/CleaningJob status fields.
package model

import "slices"

// PropertyStatus is the listing state of a property.
type PropertyStatus string

const (
	PropertyActive   PropertyStatus = "active"
	PropertyInactive PropertyStatus = "inactive"
)

// Property is a rental unit synced from the booking platform.
type Property struct {
	ID           string         `json:"id"`
	HospitableID string         `json:"hospitable_id"`
	Name         string         `json:"name"`
	InternalCode string         `json:"internal_code"`
	Address      string         `json:"address"`
	BuildingName string         `json:"building_name,omitempty"`
	RoomNumber   string         `json:"room_number,omitempty"`
	Bedrooms     int            `json:"bedrooms"`
	Bathrooms    float64        `json:"bathrooms"`
	MaxGuests    int            `json:"max_guests"`
	CheckInTime  string         `json:"check_in_time"`
	CheckOutTime string         `json:"check_out_time"`
	Status       PropertyStatus `json:"status"`
	Segment      string         `json:"segment,omitempty"`
	Picture      string         `json:"picture,omitempty"`
}

// Reservation is a guest booking.
type Reservation struct {
	ID               string    `json:"id"`
	PropertyID       string    `json:"property_id"`
	HospitableID     string    `json:"hospitable_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	Platform         string    `json:"platform"`
	CheckInDate      string    `json:"check_in_date"`
	CheckOutDate     string    `json:"check_out_date"`
	GuestName        string    `json:"guest_name"`
	GuestEmail       string    `json:"guest_email,omitempty"`
	GuestPhone       string    `json:"guest_phone,omitempty"`
	GuestCount       int       `json:"guest_count"`
	TotalPrice       float64   `json:"total_price"`
	PayoutAmount     float64   `json:"payout_amount"`
	Currency         string    `json:"currency"`
	Status           string    `json:"status"`
	SpecialRequests  string    `json:"special_requests,omitempty"`
	Property         *Property `json:"properties,omitempty"`
}

// CleaningStatus is the lifecycle state of a cleaning job.
type CleaningStatus string

const (
	CleaningPending    CleaningStatus = "pending"
	CleaningAssigned   CleaningStatus = "assigned"
	CleaningInProgress CleaningStatus = "in_progress"
	CleaningCompleted  CleaningStatus = "completed"
	CleaningVerified   CleaningStatus = "verified"
)

// Valid reports whether s is a known cleaning status.
func (s CleaningStatus) Valid() bool {
	switch s {
	case CleaningPending, CleaningAssigned, CleaningInProgress, CleaningCompleted, CleaningVerified:
		return true
	}
	return false
}

// CleaningJob is a turnover job synced from the cleaning platform.
type CleaningJob struct {
	ID                 string         `json:"id"`
	TurnoID            string         `json:"turno_id"`
	PropertyID         string         `json:"property_id"`
	ReservationID      string         `json:"reservation_id,omitempty"`
	NextReservationID  string         `json:"next_reservation_id,omitempty"`
	ScheduledDate      string         `json:"scheduled_date"`
	ScheduledTime      string         `json:"scheduled_time,omitempty"`
	DeadlineTime       string         `json:"deadline_time,omitempty"`
	CleanerName        string         `json:"cleaner_name,omitempty"`
	CleanerPhone       string         `json:"cleaner_phone,omitempty"`
	Status             CleaningStatus `json:"status"`
	StartedAt          string         `json:"started_at,omitempty"`
	CompletedAt        string         `json:"completed_at,omitempty"`
	VerifiedAt         string         `json:"verified_at,omitempty"`
	ChecklistCompleted bool           `json:"checklist_completed,omitempty"`
	PhotoCount         int            `json:"photo_count,omitempty"`
	IssuesReported     []string       `json:"issues_reported,omitempty"`
	Property           *Property      `json:"properties,omitempty"`
}

// Clone returns a copy that shares no memory with j.
func (j CleaningJob) Clone() CleaningJob {
	j.IssuesReported = slices.Clone(j.IssuesReported)
	j.Property = cloneProperty(j.Property)
	return j
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

// TaskCategory groups tasks by kind of work.
type TaskCategory string

const (
	TaskMaintenance TaskCategory = "maintenance"
	TaskInspection  TaskCategory = "inspection"
	TaskInventory   TaskCategory = "inventory"
	TaskGeneral     TaskCategory = "general"
)

// TaskPriority ranks tasks.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Task is an operational to-do item, optionally tied to a property.
type Task struct {
	ID            string       `json:"id"`
	PropertyID    string       `json:"property_id,omitempty"`
	ReservationID string       `json:"reservation_id,omitempty"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Category      TaskCategory `json:"category"`
	Priority      TaskPriority `json:"priority"`
	Status        TaskStatus   `json:"status"`
	AssignedTo    string       `json:"assigned_to,omitempty"`
	DueDate       string       `json:"due_date,omitempty"`
	CompletedAt   string       `json:"completed_at,omitempty"`
	CreatedBy     string       `json:"created_by"`
	CreatedAt     string       `json:"created_at"`
	UpdatedAt     string       `json:"updated_at"`
	Property      *Property    `json:"properties,omitempty"`
}

// Clone returns a copy that shares no memory with t.
func (t Task) Clone() Task {
	t.Property = cloneProperty(t.Property)
	return t
}

func cloneProperty(p *Property) *Property {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// PropertyWithDetails is a property joined with its related collections.
type PropertyWithDetails struct {
	Property
	Reservations []Reservation `json:"reservations,omitempty"`
	CleaningJobs []CleaningJob `json:"cleaning_jobs,omitempty"`
	Tasks        []Task        `json:"tasks,omitempty"`
}

// Envelope is the { data, count, error } wrapper most endpoints reply with.
type Envelope[T any] struct {
	Data  T      `json:"data"`
	Count int    `json:"count,omitempty"`
	Error string `json:"error,omitempty"`
}
