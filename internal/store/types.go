package store

import "hostel-backend/internal/model"

// BedFilter narrows ListBeds.
type BedFilter struct {
	RoomID        string
	AvailableOnly bool
}

// ComplaintFilter narrows ListComplaints. Zero values match everything.
type ComplaintFilter struct {
	StudentID string
	Status    model.ComplaintStatus
	Limit     int
}

// RentFilter narrows ListRent and RentTotals.
type RentFilter struct {
	StudentID string
	Status    model.RentStatus
}

// RentTotal is the sum of amounts for one rent status.
type RentTotal struct {
	Status model.RentStatus `json:"status"`
	Total  float64          `json:"total"`
	Count  int64            `json:"count"`
}

// RoomDeletion describes what DeleteRoom removed.
type RoomDeletion struct {
	RoomID             string   `json:"room_id"`
	BedsRemoved        int64    `json:"beds_removed"`
	UnassignedStudents []string `json:"unassigned_students"`
}

// ConsistencyReport lists rows that break the occupancy invariant.
type ConsistencyReport struct {
	// Beds flagged occupied that no student references.
	OccupiedWithoutStudent []string `json:"occupied_without_student"`
	// Students whose bed is flagged free.
	StudentOnFreeBed []string `json:"student_on_free_bed"`
	// Students referencing a bed that does not exist.
	DanglingBedRefs []string `json:"dangling_bed_refs"`
}

// Clean reports whether no violation was found.
func (r *ConsistencyReport) Clean() bool {
	return len(r.OccupiedWithoutStudent) == 0 && len(r.StudentOnFreeBed) == 0 && len(r.DanglingBedRefs) == 0
}

// ReconcileResult lists the rows ReconcileOccupancy corrected.
type ReconcileResult struct {
	BedsMarkedOccupied []string `json:"beds_marked_occupied"`
	BedsMarkedFree     []string `json:"beds_marked_free"`
	StudentsCleared    []string `json:"students_cleared"`
}

// Changed reports whether anything was corrected.
func (r *ReconcileResult) Changed() bool {
	return len(r.BedsMarkedOccupied) > 0 || len(r.BedsMarkedFree) > 0 || len(r.StudentsCleared) > 0
}
