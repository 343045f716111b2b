package cor

import "time"

// Patch is a partial update. Nil fields keep the prior value. A pointer to the
// zero time clears SubmittedAt or DueAt; an empty string clears the optional
// text fields.
type Patch struct {
	CORNumber     *string
	Title         *string
	Subcontractor *string
	Trade         *string
	SubmittedAt   *time.Time
	DueAt         *time.Time
	Status        *Status
	Priority      *Priority
	Amount        *float64
	OwnerRef      *string
	RFI           *string
	Tags          *[]string
	Notes         *string
	Attachments   *int
}

// Ptr returns a pointer to v, for building patches inline.
func Ptr[T any](v T) *T { return &v }

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// Apply merges p into a copy of r. ID and CreatedAt are never touched.
func (r Record) Apply(p Patch) Record {
	out := r.Clone()
	if p.CORNumber != nil {
		out.CORNumber = *p.CORNumber
	}
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Subcontractor != nil {
		out.Subcontractor = *p.Subcontractor
	}
	if p.Trade != nil {
		out.Trade = *p.Trade
	}
	if p.SubmittedAt != nil {
		out.SubmittedAt = optionalTime(*p.SubmittedAt)
	}
	if p.DueAt != nil {
		out.DueAt = optionalTime(*p.DueAt)
	}
	if p.Status != nil && p.Status.Valid() {
		out.Status = *p.Status
	}
	if p.Priority != nil && p.Priority.Valid() {
		out.Priority = *p.Priority
	}
	if p.Amount != nil {
		out.Amount = ClampAmount(*p.Amount)
	}
	if p.OwnerRef != nil {
		out.OwnerRef = *p.OwnerRef
	}
	if p.RFI != nil {
		out.RFI = *p.RFI
	}
	if p.Tags != nil {
		out.Tags = cloneTags(*p.Tags)
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	if p.Attachments != nil {
		out.Attachments = cloneInt(p.Attachments)
	}
	return out
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
