package domain

import (
	"maps"
	"time"
)

// Vendor field names shared by outbound requests and inbound notifications.
const (
	FieldOrderID        = "oid"
	FieldChargeTotal    = "chargetotal"
	FieldCurrency       = "currency"
	FieldTxnDateTime    = "txndatetime"
	FieldStoreName      = "storename"
	FieldStatus         = "status"
	FieldApprovalCode   = "approval_code"
	FieldTransactionRef = "ipgTransactionId"
	FieldFailReason     = "fail_reason"
)

// Fields is a flat set of named string values as exchanged with the vendor.
type Fields map[string]string

func (f Fields) Get(name string) string {
	return f[name]
}

func (f Fields) Clone() Fields {
	return maps.Clone(f)
}

// With returns a copy of f with name set to value.
func (f Fields) With(name, value string) Fields {
	out := f.Clone()
	if out == nil {
		out = Fields{}
	}
	out[name] = value
	return out
}

// Notification is an asynchronous status report delivered by the vendor.
type Notification struct {
	Fields     Fields
	SourceIP   string
	ReceivedAt time.Time
}

func (n Notification) OrderID() string        { return n.Fields.Get(FieldOrderID) }
func (n Notification) TransactionRef() string { return n.Fields.Get(FieldTransactionRef) }
func (n Notification) VendorStatus() string   { return n.Fields.Get(FieldStatus) }
func (n Notification) ApprovalCode() string   { return n.Fields.Get(FieldApprovalCode) }
func (n Notification) FailReason() string     { return n.Fields.Get(FieldFailReason) }

// LedgerEntry records that the notification (OrderID, TransactionRef) has
// been applied. A missing vendor reference is stored as the empty string.
type LedgerEntry struct {
	OrderID        string
	TransactionRef string
	Status         PaymentStatus
	AppliedAt      time.Time
}

// AuditRecord is one row of the notification audit trail.
type AuditRecord struct {
	ID             string
	OrderID        string
	TransactionRef string
	VendorStatus   string
	Outcome        string
	Detail         string
	SourceIP       string
	Fields         Fields
	ReceivedAt     time.Time
}

type PaymentStats struct {
	Counts              map[PaymentStatus]int64
	CompletedTotalCents int64
}

func (s PaymentStats) Total() int64 {
	var n int64
	for _, c := range s.Counts {
		n += c
	}
	return n
}
