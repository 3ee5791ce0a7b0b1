// Package contracts is the client side of the contract API: the typed
// contract model, its display formatting, create-time validation and the
// service that talks to the server.
package contracts

import "time"

type Type string

const (
	TypeSale   Type = "SALE"
	TypeJeonse Type = "JEONSE"
	TypeWolse  Type = "WOLSE"
)

func (t Type) Valid() bool {
	switch t {
	case TypeSale, TypeJeonse, TypeWolse:
		return true
	}
	return false
}

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

type Unit struct {
	Area      string `json:"area,omitempty"`
	Structure string `json:"structure,omitempty"`
}

type Schedule struct {
	ContractDate string `json:"contract_date,omitempty"`
	MiddleDate   string `json:"middle_date,omitempty"`
	BalanceDate  string `json:"balance_date,omitempty"`
	TransferDate string `json:"transfer_date,omitempty"`
	HandoverDate string `json:"handover_date,omitempty"`
}

type Brokerage struct {
	OfficeName string `json:"office_name,omitempty"`
	Rep        string `json:"rep,omitempty"`
	RegNo      string `json:"reg_no,omitempty"`
	Address    string `json:"address,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Fee        string `json:"fee,omitempty"`
	FeeNote    string `json:"fee_note,omitempty"`
}

type Attachments struct {
	Registry bool `json:"registry,omitempty"`
	Building bool `json:"building,omitempty"`
	Land     bool `json:"land,omitempty"`
}

type Signature struct {
	ID       int64  `json:"id"`
	Role     Role   `json:"role"`
	ImageURL string `json:"image_url,omitempty"`
	SignedAt string `json:"signed_at,omitempty"`
}

// Contract is the server's contract record.
type Contract struct {
	ID             int64        `json:"id"`
	Type           Type         `json:"type"`
	FormVersion    string       `json:"form_version,omitempty"`
	Status         Status       `json:"status,omitempty"`
	ComputedStatus Status       `json:"computed_status,omitempty"`
	SellerName     string       `json:"seller_name"`
	SellerPhone    string       `json:"seller_phone"`
	BuyerName      string       `json:"buyer_name"`
	BuyerPhone     string       `json:"buyer_phone"`
	Address        string       `json:"property_address"`
	Unit           *Unit        `json:"unit,omitempty"`
	PriceTotal     int64        `json:"price_total,omitempty"`
	SalePrice      int64        `json:"sale_price,omitempty"`
	Deposit        int64        `json:"deposit,omitempty"`
	MonthlyRent    int64        `json:"monthly_rent,omitempty"`
	MonthlyPayday  int          `json:"monthly_payday,omitempty"`
	MgmtFee        int64        `json:"mgmt_fee,omitempty"`
	MgmtNote       string       `json:"mgmt_note,omitempty"`
	ContractDate   string       `json:"contract_date,omitempty"`
	HandoverDate   string       `json:"handover_date,omitempty"`
	Schedule       *Schedule    `json:"schedule,omitempty"`
	Brokerage      *Brokerage   `json:"brokerage,omitempty"`
	Attachments    *Attachments `json:"attachments,omitempty"`
	SpecialTerms   string       `json:"special_terms,omitempty"`
	DocNo          string       `json:"doc_no"`
	DocHash        string       `json:"doc_hash"`
	ShortHash      string       `json:"short_hash"`
	Signatures     []Signature  `json:"signatures,omitempty"`
	CreatedAt      string       `json:"created_at"`
	UpdatedAt      string       `json:"updated_at"`
}

// EffectiveStatus prefers the stored status over the server-computed one,
// and falls back to deriving it from the contract period.
func (c *Contract) EffectiveStatus(now time.Time) Status {
	if c.Status != "" {
		return c.Status
	}
	if c.ComputedStatus != "" {
		return c.ComputedStatus
	}
	start, end := c.periodDates()
	return AutoStatus(ParseDate(start), ParseDate(end), now)
}

func (c *Contract) periodDates() (string, string) {
	if c.ContractDate != "" || c.HandoverDate != "" {
		return c.ContractDate, c.HandoverDate
	}
	if c.Schedule == nil {
		return "", ""
	}
	return firstNonEmpty(c.Schedule.ContractDate, c.Schedule.MiddleDate),
		firstNonEmpty(c.Schedule.HandoverDate, c.Schedule.TransferDate)
}

// Page is one page of a contract listing.
type Page struct {
	Contracts []Contract `json:"contracts"`
	Page      int        `json:"page"`
	Pages     int        `json:"pages"`
	Total     int        `json:"total"`
}

// PDFInfo identifies a rendered contract document.
type PDFInfo struct {
	ContractID  int64  `json:"contract_id"`
	DocNo       string `json:"doc_no"`
	DocHash     string `json:"doc_hash"`
	PDFHash     string `json:"pdf_hash"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	FormVersion string `json:"form_version"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
