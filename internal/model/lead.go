package model

import "time"

// VerificationStatus is the verifier's verdict on a lead's contact and
// listing details.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationVerified   VerificationStatus = "verified"
	VerificationFailed     VerificationStatus = "verification_failed"
	VerificationSkipped    VerificationStatus = "verification_skipped"
)

// QualificationStatus is the pass/fail decision gating CRM sync and outreach.
type QualificationStatus string

const (
	QualificationPending   QualificationStatus = "pending"
	QualificationQualified QualificationStatus = "qualified"
	QualificationRejected  QualificationStatus = "rejected"
)

// SyncStatus tracks a lead's upsert state against a single CRM sink.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// SendStatus tracks a lead's delivery state on a single outreach channel.
type SendStatus string

const (
	SendPending SendStatus = "pending"
	SendSent    SendStatus = "sent"
	SendFailed  SendStatus = "failed"
	SendSkipped SendStatus = "skipped"
)

// Well-known keys in Lead.Attributes. Values may be absent; stages must
// tolerate missing keys.
const (
	AttrName         = "name"
	AttrPhone        = "phone"
	AttrEmail        = "email"
	AttrPropertyType = "property_type"
	AttrBedrooms     = "bedrooms"
	AttrBudget       = "budget"
	AttrArea         = "area"
	AttrListingURL   = "listing_url"
)

// SyncResult is the outcome of upserting a lead into one sink.
type SyncResult struct {
	Status    SyncStatus `json:"status"`
	RecordRef string     `json:"record_ref,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// SendResult is the outcome of one channel send for a lead.
type SendResult struct {
	Status SendStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// Lead is the unit of work flowing through every pipeline stage. Each stage
// owns exactly one set of fields: IdentityKey/Source/Attributes are fixed at
// creation, Verification belongs to the verification stage, Score and
// Qualification to the qualification stage, CRMSync to the sync stage and
// Communication to the communication stage. No stage writes outside its set.
type Lead struct {
	IdentityKey string            `json:"identity_key"`
	Source      string            `json:"source"`
	Attributes  map[string]string `json:"attributes"`

	Verification      VerificationStatus `json:"verification"`
	VerificationNotes string             `json:"verification_notes,omitempty"`

	Score         *int                `json:"score,omitempty"`
	Qualification QualificationStatus `json:"qualification"`

	CRMSync       map[string]SyncResult `json:"crm_sync,omitempty"`
	Communication map[string]SendResult `json:"communication,omitempty"`

	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// NewLead creates a lead in its initial state. IdentityKey is assigned once
// by the deduplicator and never recomputed.
func NewLead(source string, attrs map[string]string, now time.Time) Lead {
	if attrs == nil {
		attrs = make(map[string]string)
	}
	return Lead{
		Source:        source,
		Attributes:    attrs,
		Verification:  VerificationUnverified,
		Qualification: QualificationPending,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

// Attr returns the named attribute or "" when absent.
func (l *Lead) Attr(key string) string {
	return l.Attributes[key]
}

// Touch updates the last-modified timestamp. Stages call it after writing
// their owned fields.
func (l *Lead) Touch(now time.Time) {
	l.LastUpdatedAt = now
}

// Synced reports whether at least one sink accepted this lead.
func (l *Lead) Synced() bool {
	for _, r := range l.CRMSync {
		if r.Status == SyncSynced {
			return true
		}
	}
	return false
}
