package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/contract-desk/contracts"
	"github.com/rs/zerolog/log"
)

// ContractRow is a contract formatted for listing.
type ContractRow struct {
	ID        int64
	DocNo     string
	TypeLabel string
	Parties   string
	Address   string
	Price     string
	Period    string
	Badge     contracts.Badge
}

type ContractListPageData struct {
	Rows    []ContractRow
	Query   string
	Type    string
	Types   []contracts.Type
	Page    int
	Pages   int
	Total   int
	PrevURL string
	NextURL string
}

// SignatureSlot is one signer of a contract on the detail page.
type SignatureSlot struct {
	Role     contracts.Role
	Label    string
	Signed   bool
	SignedAt string
}

type ContractPageData struct {
	Contract *contracts.Contract
	Row      ContractRow
	Slots    []SignatureSlot
}

// ContractFormData re-renders the create form with its field errors.
type ContractFormData struct {
	Form   url.Values
	Types  []contracts.Type
	Errors contracts.ValidationError
}

var contractTypes = []contracts.Type{contracts.TypeSale, contracts.TypeJeonse, contracts.TypeWolse}

func (s *Server) contractRow(c *contracts.Contract) ContractRow {
	return ContractRow{
		ID:        c.ID,
		DocNo:     c.DocNo,
		TypeLabel: contracts.TypeLabel(c.Type),
		Parties:   c.SellerName + " / " + c.BuyerName,
		Address:   c.Address,
		Price:     contracts.FormatPrice(c),
		Period:    contracts.Period(c),
		Badge:     contracts.StatusBadge(c.EffectiveStatus(s.nowTime())),
	}
}

func (s *Server) contractRows(list []contracts.Contract) []ContractRow {
	rows := make([]ContractRow, 0, len(list))
	for i := range list {
		rows = append(rows, s.contractRow(&list[i]))
	}
	return rows
}

func (s *Server) ContractListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params := contracts.ListParams{
			Page:  positiveInt(q.Get("page"), 1),
			Query: strings.TrimSpace(q.Get("q")),
			Type:  contracts.Type(strings.ToUpper(q.Get("type"))),
		}
		if params.Type != "" && !params.Type.Valid() {
			params.Type = ""
		}

		page, err := s.contracts.List(r.Context(), params)
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}

		data := ContractListPageData{
			Rows:  s.contractRows(page.Contracts),
			Query: params.Query,
			Type:  string(params.Type),
			Types: contractTypes,
			Page:  page.Page,
			Pages: page.Pages,
			Total: page.Total,
		}
		if page.Page > 1 {
			data.PrevURL = listURL(params, page.Page-1)
		}
		if page.Page < page.Pages {
			data.NextURL = listURL(params, page.Page+1)
		}
		s.renderPage(w, http.StatusOK, "contracts.html", s.view("계약 목록", data))
	}
}

func listURL(params contracts.ListParams, page int) string {
	v := url.Values{"page": {strconv.Itoa(page)}}
	if params.Query != "" {
		v.Set("q", params.Query)
	}
	if params.Type != "" {
		v.Set("type", string(params.Type))
	}
	return RouteContracts + "?" + v.Encode()
}

func (s *Server) ContractDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := s.loadContract(w, r)
		if !ok {
			return
		}
		s.renderPage(w, http.StatusOK, "contract.html", s.view(c.DocNo, ContractPageData{
			Contract: c,
			Row:      s.contractRow(c),
			Slots:    signatureSlots(c),
		}))
	}
}

func signatureSlots(c *contracts.Contract) []SignatureSlot {
	roles := contracts.SignatureRoles(c.Type)
	slots := make([]SignatureSlot, 0, len(roles))
	for _, role := range roles {
		slot := SignatureSlot{Role: role, Label: contracts.SignatureLabel(role)}
		stored := contracts.ServerRole(c.Type, role)
		for _, sig := range c.Signatures {
			if sig.Role == stored && sig.SignedAt != "" {
				slot.Signed = true
				slot.SignedAt = sig.SignedAt
			}
		}
		slots = append(slots, slot)
	}
	return slots
}

func (s *Server) ContractNewPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := url.Values{"type": {string(contracts.TypeSale)}}
		if t := contracts.Type(strings.ToUpper(r.URL.Query().Get("type"))); t.Valid() {
			form.Set("type", string(t))
		}
		s.renderPage(w, http.StatusOK, "contract_new.html", s.view("새 계약", ContractFormData{Form: form, Types: contractTypes}))
	}
}

// ContractCreateHandler validates locally, then on the server. Field errors
// from either side re-render the form.
func (s *Server) ContractCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		req, fieldErrs := createRequestFromForm(r.PostForm)
		var id int64
		if len(fieldErrs) == 0 {
			var err error
			id, err = s.contracts.Create(r.Context(), req)
			var validation contracts.ValidationError
			switch {
			case errors.As(err, &validation):
				fieldErrs = validation
			case err != nil:
				s.apiFailure(w, r, err)
				return
			}
		}
		if len(fieldErrs) > 0 {
			v := s.view("새 계약", ContractFormData{Form: r.PostForm, Types: contractTypes, Errors: fieldErrs})
			v.Error = "입력값을 확인해 주세요."
			s.renderPage(w, http.StatusUnprocessableEntity, "contract_new.html", v)
			return
		}

		log.Info().Int64("contract_id", id).Msg("contract created")
		http.Redirect(w, r, contractURL(id), http.StatusSeeOther)
	}
}

// createRequestFromForm maps the create form onto the API payload. Blank
// amounts are left unset so the per-type rules see them as absent.
func createRequestFromForm(form url.Values) (*contracts.CreateRequest, contracts.ValidationError) {
	errs := contracts.ValidationError{}
	amount := func(field string) *int64 {
		raw := strings.NewReplacer(",", "", " ", "").Replace(form.Get(field))
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs[field] = "숫자만 입력할 수 있습니다"
			return nil
		}
		return &n
	}

	req := &contracts.CreateRequest{
		Type:    contracts.Type(strings.ToUpper(form.Get("type"))),
		Address: strings.TrimSpace(form.Get("address")),
		Parties: []contracts.Party{
			{Role: contracts.RoleSeller, Name: strings.TrimSpace(form.Get("seller_name")), Phone: strings.TrimSpace(form.Get("seller_phone"))},
			{Role: contracts.RoleBuyer, Name: strings.TrimSpace(form.Get("buyer_name")), Phone: strings.TrimSpace(form.Get("buyer_phone"))},
		},
		SalePrice:    amount("sale_price"),
		Deposit:      amount("deposit"),
		MonthlyRent:  amount("monthly_rent"),
		ContractDate: form.Get("contract_date"),
		HandoverDate: form.Get("handover_date"),
		MgmtNote:     strings.TrimSpace(form.Get("mgmt_note")),
		SpecialTerms: strings.TrimSpace(form.Get("special_terms")),
	}

	sigs := contracts.SignaturesInput{
		Seller: form.Get("signature_seller"),
		Buyer:  form.Get("signature_buyer"),
		Lessor: form.Get("signature_lessor"),
		Lessee: form.Get("signature_lessee"),
		Broker: form.Get("signature_broker"),
	}
	if sigs != (contracts.SignaturesInput{}) {
		req.Signatures = &sigs
	}
	return req, errs
}

func (s *Server) ContractDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.contractID(w, r)
		if !ok {
			return
		}
		if err := s.contracts.Delete(r.Context(), id); err != nil {
			s.apiFailure(w, r, err)
			return
		}
		http.Redirect(w, r, RouteContracts, http.StatusSeeOther)
	}
}

// ContractPDFHandler serves the final document, or with preview set a
// preview including signatures and stamps shown inline.
func (s *Server) ContractPDFHandler(preview bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.contractID(w, r)
		if !ok {
			return
		}
		var (
			body []byte
			err  error
		)
		disposition := "attachment"
		if preview {
			body, err = s.contracts.PDFPreview(r.Context(), id, true, true)
			disposition = "inline"
		} else {
			body, err = s.contracts.PDF(r.Context(), id)
		}
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=contract-%d.pdf", disposition, id))
		_, _ = w.Write(body)
	}
}

// ContractSignatureHandler stores a drawn signature posted as a data URL.
func (s *Server) ContractSignatureHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := s.loadContract(w, r)
		if !ok {
			return
		}
		role := contracts.Role(strings.ToUpper(chi.URLParam(r, "role")))
		if !hasRole(c.Type, role) {
			s.badRequest(w, "이 계약에 없는 서명 역할입니다.")
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		_, err := s.contracts.UploadSignature(r.Context(), c.ID, c.Type, role, r.PostForm.Get("image"))
		switch {
		case errors.Is(err, contracts.ErrInvalidDataURL):
			s.badRequest(w, "서명 이미지가 올바르지 않습니다.")
			return
		case err != nil:
			s.apiFailure(w, r, err)
			return
		}
		http.Redirect(w, r, contractURL(c.ID), http.StatusSeeOther)
	}
}

func hasRole(t contracts.Type, role contracts.Role) bool {
	for _, r := range contracts.SignatureRoles(t) {
		if r == role {
			return true
		}
	}
	return false
}

func (s *Server) loadContract(w http.ResponseWriter, r *http.Request) (*contracts.Contract, bool) {
	id, ok := s.contractID(w, r)
	if !ok {
		return nil, false
	}
	c, err := s.contracts.Get(r.Context(), id)
	if err != nil {
		s.apiFailure(w, r, err)
		return nil, false
	}
	return c, true
}

func (s *Server) contractID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		s.NotFoundHandler()(w, r)
		return 0, false
	}
	return id, true
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	v := s.view("오류", nil)
	v.Error = msg
	s.renderPage(w, http.StatusBadRequest, "notice.html", v)
}

func contractURL(id int64) string {
	return RouteContracts + "/" + strconv.FormatInt(id, 10)
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
