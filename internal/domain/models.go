package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when the database does not (e.g. sqlite in tests)
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// LeadStatus represents where a lead sits in the repair lifecycle
type LeadStatus string

const (
	LeadStatusNew             LeadStatus = "new"
	LeadStatusContacted       LeadStatus = "contacted"
	LeadStatusQualified       LeadStatus = "qualified"
	LeadStatusPickupScheduled LeadStatus = "pickup_scheduled"
	LeadStatusInRepair        LeadStatus = "in_repair"
	LeadStatusCompleted       LeadStatus = "completed"
	LeadStatusDelivered       LeadStatus = "delivered"
	LeadStatusCancelled       LeadStatus = "cancelled"
)

// IsValid checks if the LeadStatus is a valid enum value
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusPickupScheduled, LeadStatusInRepair, LeadStatusCompleted,
		LeadStatusDelivered, LeadStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s
func (s LeadStatus) IsTerminal() bool {
	return s == LeadStatusDelivered || s == LeadStatusCancelled
}

// DeviceType represents the category of device a lead is about
type DeviceType string

const (
	DeviceTypePhone   DeviceType = "phone"
	DeviceTypeLaptop  DeviceType = "laptop"
	DeviceTypeTablet  DeviceType = "tablet"
	DeviceTypeDesktop DeviceType = "desktop"
	DeviceTypeConsole DeviceType = "console"
	DeviceTypeWatch   DeviceType = "watch"
	DeviceTypeOther   DeviceType = "other"
)

// IsValid checks if the DeviceType is a valid enum value
func (d DeviceType) IsValid() bool {
	switch d {
	case DeviceTypePhone, DeviceTypeLaptop, DeviceTypeTablet,
		DeviceTypeDesktop, DeviceTypeConsole, DeviceTypeWatch, DeviceTypeOther:
		return true
	}
	return false
}

// LeadSource represents how a lead reached the shop
type LeadSource string

const (
	LeadSourceWalkIn   LeadSource = "walk_in"
	LeadSourcePhone    LeadSource = "phone"
	LeadSourceWebsite  LeadSource = "website"
	LeadSourceReferral LeadSource = "referral"
	LeadSourceOther    LeadSource = "other"
)

// Lead represents an inbound repair inquiry tracked through the status lifecycle.
// Leads are never hard-deleted; cancellation is a terminal status.
type Lead struct {
	BaseModel
	CustomerName    string      `gorm:"type:varchar(200);not null;index"`
	CustomerPhone   string      `gorm:"type:varchar(50);not null;column:customer_phone"`
	CustomerEmail   string      `gorm:"type:varchar(255);column:customer_email"`
	CustomerAddress string      `gorm:"type:varchar(500);column:customer_address"`
	DeviceType      DeviceType  `gorm:"type:varchar(50);not null;index;column:device_type"`
	DeviceModel     string      `gorm:"type:varchar(200);column:device_model"`
	ReportedIssue   string      `gorm:"type:varchar(500);not null;index;column:reported_issue"`
	IssueDetails    string      `gorm:"type:text;column:issue_details"`
	QuotedAmount    float64     `gorm:"type:decimal(15,2);not null;default:0;column:quoted_amount"`
	Status          LeadStatus  `gorm:"type:varchar(50);not null;default:'new';index"`
	Source          LeadSource  `gorm:"type:varchar(50);not null;default:'walk_in'"`
	AssignedStaffID *uuid.UUID  `gorm:"type:uuid;index;column:assigned_staff_id"`
	AssignedStaff   *Staff      `gorm:"foreignKey:AssignedStaffID"`
	FollowUpDate    *time.Time  `gorm:"type:date;column:follow_up_date;index"`
	InvoiceID       *uuid.UUID  `gorm:"type:uuid;uniqueIndex;column:invoice_id"`
	Invoice         *Invoice    `gorm:"foreignKey:InvoiceID"`
	Remarks         []LeadRemark `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`
}

// LeadRemark is an immutable audit note attached to a lead, optionally
// recording the status the lead was moved to. Append-only.
type LeadRemark struct {
	ID              uuid.UUID   `gorm:"type:uuid;primary_key"`
	LeadID          uuid.UUID   `gorm:"type:uuid;not null;index;column:lead_id"`
	Lead            *Lead       `gorm:"foreignKey:LeadID"`
	StaffID         uuid.UUID   `gorm:"type:uuid;not null;index;column:staff_id"`
	StaffName       string      `gorm:"type:varchar(200);column:staff_name"`
	Note            string      `gorm:"type:text;not null"`
	StatusChangedTo *LeadStatus `gorm:"type:varchar(50);column:status_changed_to"`
	CreatedAt       time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// BeforeCreate assigns an ID when the database does not
func (r *LeadRemark) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName overrides the default table name
func (LeadRemark) TableName() string {
	return "lead_remarks"
}

// PaymentStatus represents the payment state of an invoice
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPartial  PaymentStatus = "partial"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid checks if the PaymentStatus is a valid enum value
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod represents how an invoice was (or will be) paid
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOnline   PaymentMethod = "online"
)

// Invoice represents a billing document generated from a lead or manual entry.
// Customer and device fields are snapshots captured at generation time and are
// deliberately decoupled from the live lead record.
type Invoice struct {
	BaseModel
	InvoiceNumber  string        `gorm:"type:varchar(20);not null;uniqueIndex;column:invoice_number"`
	LeadID         *uuid.UUID    `gorm:"type:uuid;index;column:lead_id"`
	CustomerName   string        `gorm:"type:varchar(200);not null"`
	CustomerPhone  string        `gorm:"type:varchar(50);column:customer_phone"`
	CustomerEmail  string        `gorm:"type:varchar(255);column:customer_email"`
	DeviceType     DeviceType    `gorm:"type:varchar(50);column:device_type"`
	DeviceModel    string        `gorm:"type:varchar(200);column:device_model"`
	ReportedIssue  string        `gorm:"type:varchar(500);column:reported_issue"`
	Items          []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Subtotal       float64       `gorm:"type:decimal(15,2);not null"`
	TaxRate        float64       `gorm:"type:decimal(5,2);not null;default:0;column:tax_rate"`
	TaxAmount      float64       `gorm:"type:decimal(15,2);not null;default:0;column:tax_amount"`
	DiscountAmount float64       `gorm:"type:decimal(15,2);not null;default:0;column:discount_amount"`
	TotalAmount    float64       `gorm:"type:decimal(15,2);not null;column:total_amount"`
	PaymentStatus  PaymentStatus `gorm:"type:varchar(50);not null;default:'pending';index;column:payment_status"`
	PaymentMethod  PaymentMethod `gorm:"type:varchar(50);column:payment_method"`
	PaidAt         *time.Time    `gorm:"column:paid_at"`
	Notes          string        `gorm:"type:text"`
	Terms          string        `gorm:"type:text"`
}

// InvoiceItem represents a line item on an invoice
type InvoiceItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	InvoiceID    uuid.UUID `gorm:"type:uuid;not null;index;column:invoice_id"`
	Description  string    `gorm:"type:varchar(500);not null"`
	Quantity     float64   `gorm:"type:decimal(10,2);not null;default:1"`
	UnitPrice    float64   `gorm:"type:decimal(15,2);not null;column:unit_price"`
	LineTotal    float64   `gorm:"type:decimal(15,2);not null;column:line_total"`
	DisplayOrder int       `gorm:"not null;default:0;column:display_order"`
}

// BeforeCreate assigns an ID when the database does not
func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InvoiceSequenceScope is the key for the shared invoice number counter.
// A single scope keeps numbers unique and strictly increasing shop-wide.
const InvoiceSequenceScope = "invoice"

// InvoiceSequence holds the last allocated invoice number per scope.
// Rows are locked (SELECT ... FOR UPDATE) while numbers are allocated.
type InvoiceSequence struct {
	Scope        string    `gorm:"type:varchar(50);primaryKey"`
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName overrides the default table name
func (InvoiceSequence) TableName() string {
	return "invoice_sequences"
}

// StaffRole represents a role a staff member can have
type StaffRole string

const (
	RoleAdmin        StaffRole = "admin"
	RoleManager      StaffRole = "manager"
	RoleTechnician   StaffRole = "technician"
	RoleReceptionist StaffRole = "receptionist"
)

// IsValid checks if the StaffRole is a valid enum value
func (r StaffRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTechnician, RoleReceptionist:
		return true
	}
	return false
}

// Staff represents a staff member of the repair shop
type Staff struct {
	BaseModel
	AuthID      string    `gorm:"type:varchar(100);not null;unique;column:auth_id"`
	DisplayName string    `gorm:"type:varchar(200);not null;column:display_name"`
	Email       string    `gorm:"type:varchar(255);not null;unique"`
	Phone       string    `gorm:"type:varchar(50)"`
	Role        StaffRole `gorm:"type:varchar(50);not null;default:'technician';index"`
	IsActive    bool      `gorm:"not null;default:true;column:is_active"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
}

// TableName overrides the default table name (gorm would pluralize to "staffs")
func (Staff) TableName() string {
	return "staff"
}

// LeadAttachment represents an uploaded file attached to a lead,
// typically a photo of the device taken at intake
type LeadAttachment struct {
	BaseModel
	LeadID      uuid.UUID `gorm:"type:uuid;not null;index;column:lead_id"`
	Lead        *Lead     `gorm:"foreignKey:LeadID"`
	Filename    string    `gorm:"type:varchar(255);not null"`
	ContentType string    `gorm:"type:varchar(100);not null;column:content_type"`
	Size        int64     `gorm:"not null"`
	StoragePath string    `gorm:"type:varchar(500);not null;unique;column:storage_path"`
	UploadedBy  uuid.UUID `gorm:"type:uuid;column:uploaded_by"`
}

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeFollowUpDue      NotificationType = "follow_up_due"
	NotificationTypeLeadAssigned     NotificationType = "lead_assigned"
	NotificationTypeLeadStatusChange NotificationType = "lead_status_changed"
	NotificationTypeInvoicePaid      NotificationType = "invoice_paid"
)

// Notification represents a staff notification
type Notification struct {
	BaseModel
	StaffID    uuid.UUID  `gorm:"type:uuid;not null;index;column:staff_id"`
	Type       string     `gorm:"type:varchar(50);not null"`
	Title      string     `gorm:"type:varchar(200);not null"`
	Message    string     `gorm:"type:varchar(500);not null"`
	Read       bool       `gorm:"column:read;not null;default:false;index"`
	ReadAt     *time.Time
	EntityID   *uuid.UUID `gorm:"type:uuid;column:entity_id"`
	EntityType string     `gorm:"type:varchar(50);column:entity_type"`
}
