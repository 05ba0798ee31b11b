package entity

import (
	"context"
	"iter"
	"strings"
	"time"
)

type Role string

const (
	RoleHomeowner  Role = "homeowner"
	RoleContractor Role = "contractor"
	RoleBusiness   Role = "business"
)

type Source string

const (
	SourceWeb      Source = "web"
	SourcePhone    Source = "phone"
	SourceReferral Source = "referral"
	SourceSocial   Source = "social"
)

type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQuoted    Status = "quoted"
	StatusCold      Status = "cold"
)

var (
	Roles    = []Role{RoleHomeowner, RoleContractor, RoleBusiness}
	Sources  = []Source{SourceWeb, SourcePhone, SourceReferral, SourceSocial}
	Statuses = []Status{StatusNew, StatusContacted, StatusQuoted, StatusCold}
)

func (r Role) Valid() bool {
	for _, v := range Roles {
		if r == v {
			return true
		}
	}
	return false
}

func (s Source) Valid() bool {
	for _, v := range Sources {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Lead is one inbound sales contact. Documents in every driver use the same
// field names as the JSON representation.
type Lead struct {
	ID         string    `json:"id" bson:"_id"`
	Name       string    `json:"name" bson:"name"`
	Email      string    `json:"email" bson:"email"`
	Phone      string    `json:"phone" bson:"phone"`
	PhoneE164  string    `json:"phoneE164,omitempty" bson:"phoneE164,omitempty"`
	Role       Role      `json:"role" bson:"role"`
	Location   string    `json:"location,omitempty" bson:"location,omitempty"`
	ZipCode    string    `json:"zipCode,omitempty" bson:"zipCode,omitempty"`
	Timeline   string    `json:"timeline,omitempty" bson:"timeline,omitempty"`
	Source     Source    `json:"source" bson:"source"`
	Status     Status    `json:"status" bson:"status"`
	HasQuote   bool      `json:"hasQuote" bson:"hasQuote"`
	AssignedTo string    `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Converted reports whether a quote has been generated for the lead.
func (l *Lead) Converted() bool { return l.HasQuote }

// LeadInput is the intake schema accepted by the store adapter's Create.
type LeadInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,leademail"`
	Phone    string `json:"phone" validate:"max=40"`
	Role     Role   `json:"role" validate:"required,oneof=homeowner contractor business"`
	Location string `json:"location" validate:"max=200"`
	ZipCode  string `json:"zipCode" validate:"max=20"`
	Timeline string `json:"timeline" validate:"max=100"`
	Source   Source `json:"source" validate:"required,oneof=web phone referral social"`
}

// LeadPatch is a partial update. Nil fields are left untouched; an empty
// AssignedTo clears the assignment.
type LeadPatch struct {
	Name       *string `json:"name,omitempty" validate:"omitnil,min=1,max=200"`
	Email      *string `json:"email,omitempty" validate:"omitnil,leademail"`
	Phone      *string `json:"phone,omitempty" validate:"omitnil,max=40"`
	Role       *Role   `json:"role,omitempty" validate:"omitnil,oneof=homeowner contractor business"`
	Location   *string `json:"location,omitempty" validate:"omitnil,max=200"`
	ZipCode    *string `json:"zipCode,omitempty" validate:"omitnil,max=20"`
	Timeline   *string `json:"timeline,omitempty" validate:"omitnil,max=100"`
	Source     *Source `json:"source,omitempty" validate:"omitnil,oneof=web phone referral social"`
	Status     *Status `json:"status,omitempty" validate:"omitnil,oneof=new contacted quoted cold"`
	HasQuote   *bool   `json:"hasQuote,omitempty"`
	AssignedTo *string `json:"assignedTo,omitempty" validate:"omitnil,max=100"`
}

// Apply copies every non-nil field of p onto l. Timestamps are the caller's job.
func (p LeadPatch) Apply(l *Lead) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Email != nil {
		l.Email = *p.Email
	}
	if p.Phone != nil {
		l.Phone = *p.Phone
	}
	if p.Role != nil {
		l.Role = *p.Role
	}
	if p.Location != nil {
		l.Location = *p.Location
	}
	if p.ZipCode != nil {
		l.ZipCode = *p.ZipCode
	}
	if p.Timeline != nil {
		l.Timeline = *p.Timeline
	}
	if p.Source != nil {
		l.Source = *p.Source
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.HasQuote != nil {
		l.HasQuote = *p.HasQuote
	}
	if p.AssignedTo != nil {
		l.AssignedTo = *p.AssignedTo
	}
}

// LeadFilters describes how the admin dashboard queries the lead collection.
// Zero values match everything.
type LeadFilters struct {
	Search               string
	Status               Status
	Source               Source
	Timeline             string
	ShowOnlyNonConverted bool
}

// Match reports whether l satisfies every non-zero criterion of f. Search is a
// case-insensitive substring match on name, email and both phone forms.
func (f LeadFilters) Match(l *Lead) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.Source != "" && l.Source != f.Source {
		return false
	}
	if f.Timeline != "" && l.Timeline != f.Timeline {
		return false
	}
	if f.ShowOnlyNonConverted && l.HasQuote {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(l.Name), q) &&
			!strings.Contains(strings.ToLower(l.Email), q) &&
			!strings.Contains(strings.ToLower(l.Phone), q) &&
			!strings.Contains(l.PhoneE164, q) {
			return false
		}
	}
	return true
}

// NewestFirst orders leads by CreatedAt descending, ties by ID ascending.
func NewestFirst(a, b *Lead) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// LeadStats holds aggregate counts over the whole collection.
type LeadStats struct {
	Total        int            `json:"total"`
	New          int            `json:"new"`
	Contacted    int            `json:"contacted"`
	Quoted       int            `json:"quoted"`
	Cold         int            `json:"cold"`
	Converted    int            `json:"converted"`
	NonConverted int            `json:"nonConverted"`
	BySource     map[Source]int `json:"bySource"`
	ByRole       map[Role]int   `json:"byRole"`
}

// LeadRepository is implemented by the document-database drivers. Only the
// store adapter talks to it.
//
// FindByID, Update and Delete return ErrLeadNotFound when the id does not
// resolve. Connectivity failures are wrapped with ErrStoreUnavailable.
// Find yields matches ordered by CreatedAt descending, ties by ID ascending.
type LeadRepository interface {
	Insert(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	Update(ctx context.Context, lead *Lead) error
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, filters LeadFilters) iter.Seq2[*Lead, error]
	Ping(ctx context.Context) error
}
