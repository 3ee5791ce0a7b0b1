package contracts_test

import (
	"testing"

	"github.com/jrsteele09/contract-desk/contracts"
	"github.com/jrsteele09/contract-desk/internal/utils"
	"github.com/stretchr/testify/require"
)

func validParties() []contracts.Party {
	return []contracts.Party{
		{Role: contracts.RoleSeller, Name: "김매도", Phone: "010-1234-5678"},
		{Role: contracts.RoleBuyer, Name: "이매수", Phone: "010 9876 5432"},
	}
}

func validationFields(t *testing.T, err error) contracts.ValidationError {
	t.Helper()
	var verr contracts.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr
}

func TestValidateAcceptsEachType(t *testing.T) {
	requests := []contracts.CreateRequest{
		{Type: contracts.TypeSale, Address: "서울시 강남구", Parties: validParties(), SalePrice: utils.Ptr[int64](500000000)},
		{Type: contracts.TypeJeonse, Address: "서울시 강남구", Parties: validParties(), Deposit: utils.Ptr[int64](300000000)},
		{Type: contracts.TypeWolse, Address: "서울시 강남구", Parties: validParties(), Deposit: utils.Ptr[int64](10000000), MonthlyRent: utils.Ptr[int64](700000), ContractDate: "2024-06-01"},
	}
	for _, req := range requests {
		require.NoError(t, req.Validate(), string(req.Type))
	}
}

func TestValidateRequiredFields(t *testing.T) {
	req := contracts.CreateRequest{}
	fields := validationFields(t, req.Validate())

	require.Contains(t, fields, "type")
	require.Contains(t, fields, "property_address_full")
	require.Contains(t, fields, "parties")
}

func TestValidateForbiddenAndMissingAmounts(t *testing.T) {
	tests := []struct {
		name   string
		req    contracts.CreateRequest
		fields []string
	}{
		{
			name:   "sale needs price and forbids rent fields",
			req:    contracts.CreateRequest{Type: contracts.TypeSale, Deposit: utils.Ptr[int64](1), MonthlyRent: utils.Ptr[int64](1)},
			fields: []string{"sale_price", "deposit", "monthly_rent"},
		},
		{
			name:   "jeonse forbids sale price even when zero",
			req:    contracts.CreateRequest{Type: contracts.TypeJeonse, Deposit: utils.Ptr[int64](1), SalePrice: utils.Ptr[int64](0)},
			fields: []string{"sale_price"},
		},
		{
			name:   "wolse needs both amounts",
			req:    contracts.CreateRequest{Type: contracts.TypeWolse, Deposit: utils.Ptr[int64](-5)},
			fields: []string{"deposit", "monthly_rent"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Address = "주소"
			tt.req.Parties = validParties()
			fields := validationFields(t, tt.req.Validate())
			require.Len(t, fields, len(tt.fields))
			for _, f := range tt.fields {
				require.Contains(t, fields, f)
			}
		})
	}
}

func TestValidateParties(t *testing.T) {
	req := contracts.CreateRequest{
		Type:      contracts.TypeSale,
		Address:   "주소",
		SalePrice: utils.Ptr[int64](1),
		Parties: []contracts.Party{
			{Role: contracts.RoleSeller, Name: "", Phone: "010-1111-2222"},
			{Role: contracts.RoleLessee, Name: "B", Phone: "phone?"},
		},
	}
	fields := validationFields(t, req.Validate())

	require.Contains(t, fields, "parties[0].name")
	require.Contains(t, fields, "parties[1].phone")
	require.Equal(t, "SELLER와 BUYER 역할이 모두 필요합니다", fields["parties"])
}

func TestValidateDates(t *testing.T) {
	req := contracts.CreateRequest{
		Type: contracts.TypeJeonse, Address: "주소", Parties: validParties(), Deposit: utils.Ptr[int64](1),
		ContractDate: "2024-13-45", HandoverDate: "2025-01-31T00:00:00",
	}
	fields := validationFields(t, req.Validate())
	require.Len(t, fields, 1)
	require.Contains(t, fields, "contract_date")
	require.Contains(t, fields.Error(), "contract_date")
}
