package model

// TaskInput is the payload for creating a task.
type TaskInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Category    TaskCategory `json:"category,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	DueDate     string       `json:"due_date,omitempty"`
	PropertyID  string       `json:"property_id,omitempty"`
	AssignedTo  string       `json:"assigned_to,omitempty"`
}

// Normalize fills the defaults the API expects.
func (in TaskInput) Normalize() TaskInput {
	if in.Status == "" {
		in.Status = TaskPending
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	return in
}

// TaskUpdate is a partial task patch. Nil fields are left untouched.
type TaskUpdate struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Category    *TaskCategory `json:"category,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	Status      *TaskStatus   `json:"status,omitempty"`
	AssignedTo  *string       `json:"assigned_to,omitempty"`
	DueDate     *string       `json:"due_date,omitempty"`
}

// StatusUpdate is a TaskUpdate that only changes the status.
func StatusUpdate(status TaskStatus) TaskUpdate {
	return TaskUpdate{Status: &status}
}

// IsEmpty reports whether the patch changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil &&
		u.Priority == nil && u.Status == nil && u.AssignedTo == nil && u.DueDate == nil
}

// Apply returns a copy of t with the patch merged in.
func (u TaskUpdate) Apply(t Task) Task {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.AssignedTo != nil {
		t.AssignedTo = *u.AssignedTo
	}
	if u.DueDate != nil {
		t.DueDate = *u.DueDate
	}
	return t
}

// CleaningStatusUpdate is the PATCH body for a cleaning job status change.
type CleaningStatusUpdate struct {
	Status CleaningStatus `json:"status"`
}
