package domain

import (
	"time"

	"github.com/google/uuid"
)

// DTOs for API requests and responses

type LeadDTO struct {
	ID                uuid.UUID  `json:"id"`
	CustomerName      string     `json:"customerName"`
	CustomerPhone     string     `json:"customerPhone"`
	CustomerEmail     string     `json:"customerEmail,omitempty"`
	CustomerAddress   string     `json:"customerAddress,omitempty"`
	DeviceType        DeviceType `json:"deviceType"`
	DeviceModel       string     `json:"deviceModel,omitempty"`
	ReportedIssue     string     `json:"reportedIssue"`
	IssueDetails      string     `json:"issueDetails,omitempty"`
	QuotedAmount      float64    `json:"quotedAmount"`
	Status            LeadStatus `json:"status"`
	Source            LeadSource `json:"source"`
	AssignedStaffID   *uuid.UUID `json:"assignedStaffId,omitempty"`
	AssignedStaffName string     `json:"assignedStaffName,omitempty"`
	FollowUpDate      *string    `json:"followUpDate,omitempty"` // YYYY-MM-DD
	InvoiceID         *uuid.UUID `json:"invoiceId,omitempty"`
	InvoiceNumber     string     `json:"invoiceNumber,omitempty"`
	CreatedAt         string     `json:"createdAt"` // ISO 8601
	UpdatedAt         string     `json:"updatedAt"` // ISO 8601
}

type LeadRemarkDTO struct {
	ID              uuid.UUID   `json:"id"`
	LeadID          uuid.UUID   `json:"leadId"`
	StaffID         uuid.UUID   `json:"staffId"`
	StaffName       string      `json:"staffName,omitempty"`
	Note            string      `json:"note"`
	StatusChangedTo *LeadStatus `json:"statusChangedTo,omitempty"`
	CreatedAt       string      `json:"createdAt"`
}

type InvoiceItemDTO struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Quantity    float64   `json:"quantity"`
	UnitPrice   float64   `json:"unitPrice"`
	LineTotal   float64   `json:"lineTotal"`
}

type InvoiceDTO struct {
	ID             uuid.UUID        `json:"id"`
	InvoiceNumber  string           `json:"invoiceNumber"`
	LeadID         *uuid.UUID       `json:"leadId,omitempty"`
	CustomerName   string           `json:"customerName"`
	CustomerPhone  string           `json:"customerPhone,omitempty"`
	CustomerEmail  string           `json:"customerEmail,omitempty"`
	DeviceType     DeviceType       `json:"deviceType,omitempty"`
	DeviceModel    string           `json:"deviceModel,omitempty"`
	ReportedIssue  string           `json:"reportedIssue,omitempty"`
	Items          []InvoiceItemDTO `json:"items"`
	Subtotal       float64          `json:"subtotal"`
	TaxRate        float64          `json:"taxRate"`
	TaxAmount      float64          `json:"taxAmount"`
	DiscountAmount float64          `json:"discountAmount"`
	TotalAmount    float64          `json:"totalAmount"`
	PaymentStatus  PaymentStatus    `json:"paymentStatus"`
	PaymentMethod  PaymentMethod    `json:"paymentMethod,omitempty"`
	PaidAt         *string          `json:"paidAt,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	Terms          string           `json:"terms,omitempty"`
	CreatedAt      string           `json:"createdAt"`
	UpdatedAt      string           `json:"updatedAt"`
}

type StaffDTO struct {
	ID          uuid.UUID  `json:"id"`
	AuthID      string     `json:"authId"`
	DisplayName string     `json:"displayName"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Role        StaffRole  `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *string    `json:"lastLoginAt,omitempty"`
	CreatedAt   string     `json:"createdAt"`
}

type LeadAttachmentDTO struct {
	ID          uuid.UUID `json:"id"`
	LeadID      uuid.UUID `json:"leadId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   string    `json:"createdAt"`
}

type NotificationDTO struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Read       bool       `json:"read"`
	EntityID   *uuid.UUID `json:"entityId,omitempty"`
	EntityType string     `json:"entityType,omitempty"`
	CreatedAt  string     `json:"createdAt"`
}

// PaginatedResponse wraps list results with paging metadata
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Request DTOs

type CreateLeadRequest struct {
	CustomerName    string     `json:"customerName" validate:"required,max=200"`
	CustomerPhone   string     `json:"customerPhone" validate:"required,max=50"`
	CustomerEmail   string     `json:"customerEmail,omitempty" validate:"omitempty,email"`
	CustomerAddress string     `json:"customerAddress,omitempty" validate:"max=500"`
	DeviceType      DeviceType `json:"deviceType" validate:"required"`
	DeviceModel     string     `json:"deviceModel,omitempty" validate:"max=200"`
	ReportedIssue   string     `json:"reportedIssue" validate:"required,max=500"`
	IssueDetails    string     `json:"issueDetails,omitempty"`
	QuotedAmount    float64    `json:"quotedAmount,omitempty" validate:"gte=0"`
	Source          LeadSource `json:"source,omitempty"`
	AssignedStaffID *uuid.UUID `json:"assignedStaffId,omitempty"`
	FollowUpDate    *time.Time `json:"followUpDate,omitempty"`
}

type UpdateLeadRequest struct {
	CustomerName    string     `json:"customerName" validate:"required,max=200"`
	CustomerPhone   string     `json:"customerPhone" validate:"required,max=50"`
	CustomerEmail   string     `json:"customerEmail,omitempty" validate:"omitempty,email"`
	CustomerAddress string     `json:"customerAddress,omitempty" validate:"max=500"`
	DeviceType      DeviceType `json:"deviceType" validate:"required"`
	DeviceModel     string     `json:"deviceModel,omitempty" validate:"max=200"`
	ReportedIssue   string     `json:"reportedIssue" validate:"required,max=500"`
	IssueDetails    string     `json:"issueDetails,omitempty"`
	QuotedAmount    float64    `json:"quotedAmount,omitempty" validate:"gte=0"`
	AssignedStaffID *uuid.UUID `json:"assignedStaffId,omitempty"`
	FollowUpDate    *time.Time `json:"followUpDate,omitempty"`
}

// AddRemarkRequest applies a remark plus an optional status change to a lead
type AddRemarkRequest struct {
	Note         string      `json:"note" validate:"required"`
	Status       *LeadStatus `json:"status,omitempty"`
	FollowUpDate *time.Time  `json:"followUpDate,omitempty"`
}

// AddRemarkResponse carries the created remark plus the outcome of the
// secondary lead update. LeadUpdated is false with a Warning set when the
// remark persisted but the status/follow-up write failed.
type AddRemarkResponse struct {
	Remark      LeadRemarkDTO `json:"remark"`
	LeadUpdated bool          `json:"leadUpdated"`
	Warning     string        `json:"warning,omitempty"`
}

type InvoiceItemRequest struct {
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unitPrice" validate:"gte=0"`
}

type GenerateInvoiceRequest struct {
	LeadID         *uuid.UUID           `json:"leadId,omitempty"`
	CustomerName   string               `json:"customerName,omitempty" validate:"max=200"`
	CustomerPhone  string               `json:"customerPhone,omitempty" validate:"max=50"`
	CustomerEmail  string               `json:"customerEmail,omitempty" validate:"omitempty,email"`
	Items          []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
	Subtotal       float64              `json:"subtotal" validate:"gte=0"`
	TaxRate        float64              `json:"taxRate" validate:"gte=0"`
	TaxAmount      float64              `json:"taxAmount" validate:"gte=0"`
	DiscountAmount float64              `json:"discountAmount" validate:"gte=0"`
	TotalAmount    float64              `json:"totalAmount" validate:"gte=0"`
	Notes          string               `json:"notes,omitempty"`
	Terms          string               `json:"terms,omitempty"`
}

// GenerateInvoiceResponse carries the created invoice plus a warning when the
// lead back-link could not be written
type GenerateInvoiceResponse struct {
	Invoice InvoiceDTO `json:"invoice"`
	Warning string     `json:"warning,omitempty"`
}

type UpdatePaymentRequest struct {
	PaymentStatus PaymentStatus `json:"paymentStatus" validate:"required"`
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
}

type CreateStaffRequest struct {
	AuthID      string    `json:"authId" validate:"required,max=100"`
	DisplayName string    `json:"displayName" validate:"required,max=200"`
	Email       string    `json:"email" validate:"required,email"`
	Phone       string    `json:"phone,omitempty" validate:"max=50"`
	Role        StaffRole `json:"role" validate:"required"`
}

type UpdateStaffRequest struct {
	DisplayName string    `json:"displayName" validate:"required,max=200"`
	Email       string    `json:"email" validate:"required,email"`
	Phone       string    `json:"phone,omitempty" validate:"max=50"`
	Role        StaffRole `json:"role" validate:"required"`
	IsActive    *bool     `json:"isActive,omitempty"`
}

// Dashboard metrics DTOs

// MetricDelta is a period-over-period comparison for a headline metric.
// When the prior window's value was zero and the current is not, NoPriorData
// is set instead of reporting an unbounded percentage.
type MetricDelta struct {
	Current     float64 `json:"current"`
	Previous    float64 `json:"previous"`
	ChangePct   float64 `json:"changePct"`
	NoPriorData bool    `json:"noPriorData"`
}

type IssueCount struct {
	Issue string `json:"issue"`
	Count int64  `json:"count"`
}

type DeviceTypeCount struct {
	DeviceType DeviceType `json:"deviceType"`
	Count      int64      `json:"count"`
}

type StatusCount struct {
	Status LeadStatus `json:"status"`
	Count  int64      `json:"count"`
}

// DailyLeadPoint is one day in the new-vs-converted time series
type DailyLeadPoint struct {
	Date      string `json:"date"` // YYYY-MM-DD
	New       int64  `json:"new"`
	Converted int64  `json:"converted"`
}

type StaffPerformance struct {
	StaffID        uuid.UUID `json:"staffId"`
	StaffName      string    `json:"staffName"`
	AssignedLeads  int64     `json:"assignedLeads"`
	ConvertedLeads int64     `json:"convertedLeads"`
	ConversionRate float64   `json:"conversionRate"`
}

// DashboardMetrics contains all metrics for the dashboard, computed over a
// rolling window (default 30 days) ending now. Deltas compare against the
// equally-sized window immediately before it.
type DashboardMetrics struct {
	WindowDays int `json:"windowDays"`

	// Lead counts within the window
	TotalLeads      int64   `json:"totalLeads"`
	NewLeads        int64   `json:"newLeads"`
	InProgressLeads int64   `json:"inProgressLeads"`
	CompletedLeads  int64   `json:"completedLeads"`
	CancelledLeads  int64   `json:"cancelledLeads"`
	ConversionRate  float64 `json:"conversionRate"` // delivered / total, 0 when total is 0

	// Revenue within the window
	PaidRevenue     float64 `json:"paidRevenue"`
	PendingRevenue  float64 `json:"pendingRevenue"`
	PaidInvoices    int64   `json:"paidInvoices"`
	PendingInvoices int64   `json:"pendingInvoices"`
	AvgInvoiceValue float64 `json:"avgInvoiceValue"` // 0 when no invoices

	// Breakdowns
	TopIssues     []IssueCount      `json:"topIssues"`
	ByDeviceType  []DeviceTypeCount `json:"byDeviceType"`
	ByStatus      []StatusCount     `json:"byStatus"`
	DailyLeads    []DailyLeadPoint  `json:"dailyLeads"`
	StaffActivity []StaffPerformance `json:"staffActivity"`

	// Period-over-period deltas against the prior window
	LeadsDelta          MetricDelta `json:"leadsDelta"`
	ConversionDelta     MetricDelta `json:"conversionDelta"` // point change, not percent
	PaidRevenueDelta    MetricDelta `json:"paidRevenueDelta"`
	AvgInvoiceDelta     MetricDelta `json:"avgInvoiceDelta"`
}

// MeResponse describes the authenticated staff member plus the capability
// and navigation sets the UI should honor
type MeResponse struct {
	Staff        StaffDTO     `json:"staff"`
	Capabilities []Capability `json:"capabilities"`
	Navigation   []NavSurface `json:"navigation"`
}
