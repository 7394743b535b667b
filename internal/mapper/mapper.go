package mapper

import (
	"github.com/fixpoint-as/repair-api/internal/domain"
)

// ToLeadDTO converts a Lead to its API representation
func ToLeadDTO(lead *domain.Lead) domain.LeadDTO {
	dto := domain.LeadDTO{
		ID:              lead.ID,
		CustomerName:    lead.CustomerName,
		CustomerPhone:   lead.CustomerPhone,
		CustomerEmail:   lead.CustomerEmail,
		CustomerAddress: lead.CustomerAddress,
		DeviceType:      lead.DeviceType,
		DeviceModel:     lead.DeviceModel,
		ReportedIssue:   lead.ReportedIssue,
		IssueDetails:    lead.IssueDetails,
		QuotedAmount:    lead.QuotedAmount,
		Status:          lead.Status,
		Source:          lead.Source,
		AssignedStaffID: lead.AssignedStaffID,
		InvoiceID:       lead.InvoiceID,
		CreatedAt:       lead.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:       lead.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}

	if lead.AssignedStaff != nil {
		dto.AssignedStaffName = lead.AssignedStaff.DisplayName
	}
	if lead.FollowUpDate != nil {
		d := lead.FollowUpDate.Format("2006-01-02")
		dto.FollowUpDate = &d
	}
	if lead.Invoice != nil {
		dto.InvoiceNumber = lead.Invoice.InvoiceNumber
	}

	return dto
}

// ToLeadRemarkDTO converts a LeadRemark to its API representation
func ToLeadRemarkDTO(remark *domain.LeadRemark) domain.LeadRemarkDTO {
	return domain.LeadRemarkDTO{
		ID:              remark.ID,
		LeadID:          remark.LeadID,
		StaffID:         remark.StaffID,
		StaffName:       remark.StaffName,
		Note:            remark.Note,
		StatusChangedTo: remark.StatusChangedTo,
		CreatedAt:       remark.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToInvoiceDTO converts an Invoice with its items to its API representation
func ToInvoiceDTO(invoice *domain.Invoice) domain.InvoiceDTO {
	items := make([]domain.InvoiceItemDTO, len(invoice.Items))
	for i, item := range invoice.Items {
		items[i] = domain.InvoiceItemDTO{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		}
	}

	dto := domain.InvoiceDTO{
		ID:             invoice.ID,
		InvoiceNumber:  invoice.InvoiceNumber,
		LeadID:         invoice.LeadID,
		CustomerName:   invoice.CustomerName,
		CustomerPhone:  invoice.CustomerPhone,
		CustomerEmail:  invoice.CustomerEmail,
		DeviceType:     invoice.DeviceType,
		DeviceModel:    invoice.DeviceModel,
		ReportedIssue:  invoice.ReportedIssue,
		Items:          items,
		Subtotal:       invoice.Subtotal,
		TaxRate:        invoice.TaxRate,
		TaxAmount:      invoice.TaxAmount,
		DiscountAmount: invoice.DiscountAmount,
		TotalAmount:    invoice.TotalAmount,
		PaymentStatus:  invoice.PaymentStatus,
		PaymentMethod:  invoice.PaymentMethod,
		Notes:          invoice.Notes,
		Terms:          invoice.Terms,
		CreatedAt:      invoice.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:      invoice.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}

	if invoice.PaidAt != nil {
		p := invoice.PaidAt.Format("2006-01-02T15:04:05Z")
		dto.PaidAt = &p
	}

	return dto
}

// ToStaffDTO converts a Staff member to its API representation
func ToStaffDTO(staff *domain.Staff) domain.StaffDTO {
	dto := domain.StaffDTO{
		ID:          staff.ID,
		AuthID:      staff.AuthID,
		DisplayName: staff.DisplayName,
		Email:       staff.Email,
		Phone:       staff.Phone,
		Role:        staff.Role,
		IsActive:    staff.IsActive,
		CreatedAt:   staff.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if staff.LastLoginAt != nil {
		l := staff.LastLoginAt.Format("2006-01-02T15:04:05Z")
		dto.LastLoginAt = &l
	}
	return dto
}

// ToLeadAttachmentDTO converts a LeadAttachment to its API representation
func ToLeadAttachmentDTO(a *domain.LeadAttachment) domain.LeadAttachmentDTO {
	return domain.LeadAttachmentDTO{
		ID:          a.ID,
		LeadID:      a.LeadID,
		Filename:    a.Filename,
		ContentType: a.ContentType,
		Size:        a.Size,
		CreatedAt:   a.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToNotificationDTO converts a Notification to its API representation
func ToNotificationDTO(n *domain.Notification) domain.NotificationDTO {
	return domain.NotificationDTO{
		ID:         n.ID,
		Type:       n.Type,
		Title:      n.Title,
		Message:    n.Message,
		Read:       n.Read,
		EntityID:   n.EntityID,
		EntityType: n.EntityType,
		CreatedAt:  n.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
