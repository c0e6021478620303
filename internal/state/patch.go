package state

import "hostmaster/internal/models"

// RecordPatch is a partial update for a hosting record. Nil fields keep
// their current value; the id is never patchable.
type RecordPatch struct {
	SerialNumber   *int
	ClientName     *string
	Website        *string
	Email          *string
	Phone          *string
	StorageGB      *int
	SetupDate      *string
	ValidationDate *string
	Amount         *float64
	Status         *string
	InvoiceNumber  *string
	InvoiceDate    *string
	PaidDate       *string
	SendingDate    *string
	PaymentStatus  *string
	InvoiceStatus  *string
	PaymentMethod  *string
	Notes          *string
}

// Apply merges the patch onto a record.
func (p *RecordPatch) Apply(r *models.HostingRecord) {
	if p.SerialNumber != nil {
		r.SerialNumber = *p.SerialNumber
	}
	if p.ClientName != nil {
		r.ClientName = *p.ClientName
	}
	if p.Website != nil {
		r.Website = *p.Website
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.Phone != nil {
		r.Phone = *p.Phone
	}
	if p.StorageGB != nil {
		r.StorageGB = *p.StorageGB
	}
	if p.SetupDate != nil {
		r.SetupDate = *p.SetupDate
	}
	if p.ValidationDate != nil {
		r.ValidationDate = *p.ValidationDate
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.InvoiceNumber != nil {
		r.InvoiceNumber = *p.InvoiceNumber
	}
	if p.InvoiceDate != nil {
		r.InvoiceDate = *p.InvoiceDate
	}
	if p.PaidDate != nil {
		r.PaidDate = *p.PaidDate
	}
	if p.SendingDate != nil {
		r.SendingDate = *p.SendingDate
	}
	if p.PaymentStatus != nil {
		r.PaymentStatus = *p.PaymentStatus
	}
	if p.InvoiceStatus != nil {
		r.InvoiceStatus = *p.InvoiceStatus
	}
	if p.PaymentMethod != nil {
		r.PaymentMethod = *p.PaymentMethod
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
}

// SettingsPatch is a partial update for the settings singleton.
type SettingsPatch struct {
	InvoicePrefix  *string
	Currency       *string
	TaxRate        *float64
	CompanyName    *string
	CompanyAddress *string
	CompanyEmail   *string
	CompanyPhone   *string
	LogoURL        *string
	ThemeColor     *string
	FontFamily     *string
	SMTPHost       *string
	SMTPPort       *int
	SMTPEncryption *string
	SMTPUser       *string
	SMTPPass       *string
	SenderName     *string
	SenderEmail    *string
}

// Apply merges the patch onto the settings.
func (p *SettingsPatch) Apply(s *models.AppSettings) {
	if p.InvoicePrefix != nil {
		s.InvoicePrefix = *p.InvoicePrefix
	}
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.TaxRate != nil {
		s.TaxRate = *p.TaxRate
	}
	if p.CompanyName != nil {
		s.CompanyName = *p.CompanyName
	}
	if p.CompanyAddress != nil {
		s.CompanyAddress = *p.CompanyAddress
	}
	if p.CompanyEmail != nil {
		s.CompanyEmail = *p.CompanyEmail
	}
	if p.CompanyPhone != nil {
		s.CompanyPhone = *p.CompanyPhone
	}
	if p.LogoURL != nil {
		s.LogoURL = *p.LogoURL
	}
	if p.ThemeColor != nil {
		s.ThemeColor = *p.ThemeColor
	}
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.SMTPHost != nil {
		s.SMTPHost = *p.SMTPHost
	}
	if p.SMTPPort != nil {
		s.SMTPPort = *p.SMTPPort
	}
	if p.SMTPEncryption != nil {
		s.SMTPEncryption = *p.SMTPEncryption
	}
	if p.SMTPUser != nil {
		s.SMTPUser = *p.SMTPUser
	}
	if p.SMTPPass != nil {
		s.SMTPPass = *p.SMTPPass
	}
	if p.SenderName != nil {
		s.SenderName = *p.SenderName
	}
	if p.SenderEmail != nil {
		s.SenderEmail = *p.SenderEmail
	}
}

// OptionsPatch is a partial update for the dropdown value lists.
type OptionsPatch struct {
	Status         []string
	PaymentMethods []string
	InvoiceStatus  []string
}

// Apply merges the patch onto the options; nil slices keep the current
// list.
func (p *OptionsPatch) Apply(o *models.DropdownOptions) {
	if p.Status != nil {
		o.Status = p.Status
	}
	if p.PaymentMethods != nil {
		o.PaymentMethods = p.PaymentMethods
	}
	if p.InvoiceStatus != nil {
		o.InvoiceStatus = p.InvoiceStatus
	}
}
