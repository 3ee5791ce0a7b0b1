package contracts

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Party is one side of the contract as submitted on create.
type Party struct {
	Role  Role   `json:"role"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// SignaturesInput carries data URLs by role for create.
type SignaturesInput struct {
	Seller string `json:"seller,omitempty"`
	Buyer  string `json:"buyer,omitempty"`
	Lessor string `json:"lessor,omitempty"`
	Lessee string `json:"lessee,omitempty"`
	Broker string `json:"broker,omitempty"`
}

// CreateRequest is the create payload. Price fields are pointers because
// the server rejects a forbidden field by its mere presence.
type CreateRequest struct {
	Type         Type             `json:"type"`
	Address      string           `json:"property_address_full"`
	Parties      []Party          `json:"parties"`
	SalePrice    *int64           `json:"sale_price,omitempty"`
	Deposit      *int64           `json:"deposit,omitempty"`
	MonthlyRent  *int64           `json:"monthly_rent,omitempty"`
	ContractDate string           `json:"contract_date,omitempty"`
	HandoverDate string           `json:"handover_date,omitempty"`
	MgmtNote     string           `json:"mgmt_note,omitempty"`
	Schedule     *Schedule        `json:"schedule,omitempty"`
	Brokerage    *Brokerage       `json:"brokerage,omitempty"`
	Attachments  *Attachments     `json:"attachments,omitempty"`
	SpecialTerms string           `json:"special_terms,omitempty"`
	Signatures   *SignaturesInput `json:"signatures,omitempty"`
}

// ValidationError maps payload fields to messages.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var phonePattern = regexp.MustCompile(`^[\d\-\s]+$`)

// Validate applies the same rules the server enforces on create.
func (r *CreateRequest) Validate() error {
	errs := ValidationError{}

	switch {
	case r.Type == "":
		errs["type"] = "계약 유형은 필수입니다"
	case !r.Type.Valid():
		errs["type"] = "계약 유형은 SALE, JEONSE, WOLSE 중 하나여야 합니다"
	}
	if strings.TrimSpace(r.Address) == "" {
		errs["property_address_full"] = "부동산 주소는 필수입니다"
	}

	r.validateParties(errs)
	r.validateAmounts(errs)

	for field, value := range map[string]string{"contract_date": r.ContractDate, "handover_date": r.HandoverDate} {
		if value != "" && ParseDate(value).IsZero() {
			errs[field] = fmt.Sprintf("%s는 ISO 날짜 형식(YYYY-MM-DD)이어야 합니다", field)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *CreateRequest) validateParties(errs ValidationError) {
	if len(r.Parties) < 2 {
		errs["parties"] = "SELLER와 BUYER 정보가 필요합니다"
		return
	}
	var hasSeller, hasBuyer bool
	for i, p := range r.Parties {
		hasSeller = hasSeller || p.Role == RoleSeller
		hasBuyer = hasBuyer || p.Role == RoleBuyer
		if strings.TrimSpace(p.Name) == "" {
			errs[fmt.Sprintf("parties[%d].name", i)] = "이름은 필수입니다"
		}
		switch {
		case strings.TrimSpace(p.Phone) == "":
			errs[fmt.Sprintf("parties[%d].phone", i)] = "전화번호는 필수입니다"
		case !phonePattern.MatchString(p.Phone):
			errs[fmt.Sprintf("parties[%d].phone", i)] = "올바른 전화번호 형식이 아닙니다"
		}
	}
	if !hasSeller || !hasBuyer {
		errs["parties"] = "SELLER와 BUYER 역할이 모두 필요합니다"
	}
}

func (r *CreateRequest) validateAmounts(errs ValidationError) {
	switch r.Type {
	case TypeSale:
		requirePositive(errs, "sale_price", r.SalePrice, "매매가격")
		forbid(errs, "deposit", r.Deposit, "매매 계약에서는 보증금을 입력할 수 없습니다")
		forbid(errs, "monthly_rent", r.MonthlyRent, "매매 계약에서는 월세를 입력할 수 없습니다")
	case TypeJeonse:
		requirePositive(errs, "deposit", r.Deposit, "전세보증금")
		forbid(errs, "sale_price", r.SalePrice, "전세 계약에서는 매매가격을 입력할 수 없습니다")
		forbid(errs, "monthly_rent", r.MonthlyRent, "전세 계약에서는 월세를 입력할 수 없습니다")
	case TypeWolse:
		requirePositive(errs, "deposit", r.Deposit, "보증금")
		requirePositive(errs, "monthly_rent", r.MonthlyRent, "월세")
		forbid(errs, "sale_price", r.SalePrice, "월세 계약에서는 매매가격을 입력할 수 없습니다")
	}
}

func requirePositive(errs ValidationError, field string, v *int64, label string) {
	switch {
	case v == nil || *v == 0:
		errs[field] = label + "은(는) 필수입니다"
	case *v < 0:
		errs[field] = label + "은(는) 0보다 큰 숫자여야 합니다"
	}
}

func forbid(errs ValidationError, field string, v *int64, msg string) {
	if v != nil {
		errs[field] = msg
	}
}

// NewDocNo builds a document number in the server's format.
func NewDocNo(now time.Time, suffix string) string {
	return fmt.Sprintf("CONTRACT_%s_%s", now.Format("20060102"), strings.ToUpper(suffix))
}
