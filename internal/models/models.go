package models

// Payment status values for a hosting record.
const (
	PaymentPaid    = "Paid"
	PaymentUnpaid  = "Unpaid"
	PaymentOverdue = "Overdue"
)

// InvoiceStatusSent marks a record whose invoice has been delivered.
const InvoiceStatusSent = "Sent"

// HostingRecord represents one client's hosting subscription and its
// current invoice. Dates are stored as YYYY-MM-DD strings, matching the
// wire format the UI exchanges with the server.
type HostingRecord struct {
	ID             string  `gorm:"primarykey" json:"id"`
	SerialNumber   int     `json:"serialNumber"`
	ClientName     string  `json:"clientName"`
	Website        string  `json:"website"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	StorageGB      int     `json:"storageGB"`
	SetupDate      string  `json:"setupDate"`
	ValidationDate string  `json:"validationDate"` // renewal due date
	Amount         float64 `json:"amount"`
	Status         string  `json:"status"`
	InvoiceNumber  string  `json:"invoiceNumber"` // empty means draft
	InvoiceDate    string  `json:"invoiceDate"`
	PaidDate       string  `json:"paidDate,omitempty"`
	SendingDate    string  `json:"sendingDate,omitempty"`
	PaymentStatus  string  `json:"paymentStatus"`
	InvoiceStatus  string  `json:"invoiceStatus"`
	PaymentMethod  string  `json:"paymentMethod"`
	Notes          string  `json:"notes,omitempty"`
}

// AppSettings is the single global configuration row shared by every
// session. It is replaced wholesale on update.
type AppSettings struct {
	ID             uint    `gorm:"primarykey" json:"-"`
	InvoicePrefix  string  `json:"invoicePrefix"`
	Currency       string  `json:"currency"`
	TaxRate        float64 `json:"taxRate"` // percent, 0-100
	CompanyName    string  `json:"companyName"`
	CompanyAddress string  `json:"companyAddress"`
	CompanyEmail   string  `json:"companyEmail"`
	CompanyPhone   string  `json:"companyPhone"`
	LogoURL        string  `json:"logoUrl"` // data URI
	ThemeColor     string  `json:"themeColor"`
	FontFamily     string  `json:"fontFamily"`
	SMTPHost       string  `json:"smtpHost"`
	SMTPPort       int     `json:"smtpPort"`
	SMTPEncryption string  `json:"smtpEncryption"` // SSL/TLS, STARTTLS, None
	SMTPUser       string  `json:"smtpUser"`
	SMTPPass       string  `json:"smtpPass"`
	SenderName     string  `json:"senderName"`
	SenderEmail    string  `json:"senderEmail"`
}

// SettingsRowID is the fixed primary key of the settings singleton.
const SettingsRowID uint = 1

// DefaultSettings returns the settings used before the first save.
func DefaultSettings() AppSettings {
	return AppSettings{
		ID:             SettingsRowID,
		InvoicePrefix:  "INV-",
		Currency:       "$",
		TaxRate:        10,
		CompanyName:    "HostMaster Solutions",
		ThemeColor:     "indigo",
		FontFamily:     "Inter",
		SMTPPort:       587,
		SMTPEncryption: "STARTTLS",
	}
}

// DropdownOptions are the editable value lists that constrain record
// fields in the UI. They live in client memory only and reset on reload.
type DropdownOptions struct {
	Status         []string `json:"status"`
	PaymentMethods []string `json:"paymentMethods"`
	InvoiceStatus  []string `json:"invoiceStatus"`
}

// DefaultDropdownOptions returns the stock value lists.
func DefaultDropdownOptions() DropdownOptions {
	return DropdownOptions{
		Status:         []string{"Active", "Suspended", "Expired", "Pending"},
		PaymentMethods: []string{"Bank Transfer", "PayPal", "Stripe", "Cash"},
		InvoiceStatus:  []string{"Draft", "Sent", "Paid", "Cancelled"},
	}
}

// User is a team member or the authenticated admin identity.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"` // Admin, Manager, Team Member
	Avatar string `json:"avatar,omitempty"`
}

// Notification is an ephemeral, client-local event record. It is never
// sent to the server and is discarded on reload.
type Notification struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"` // info, warning, success, error
	Date    string `json:"date"`
	Read    bool   `json:"read"`
}
