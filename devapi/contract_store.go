package devapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/contract-desk/contracts"
	deskerrors "github.com/jrsteele09/contract-desk/internal/errors"
	"github.com/jrsteele09/contract-desk/internal/utils"
)

const formVersion = "v1"

// contractStore keeps contracts and signature images in memory.
type contractStore struct {
	lock      sync.RWMutex
	nowTime   func() time.Time
	nextID    int64
	nextSigID int64
	contracts map[int64]*contracts.Contract
	images    map[int64][]byte // signature id to image bytes
	pdfHashes map[int64]string
}

func newContractStore(now func() time.Time) *contractStore {
	return &contractStore{
		nowTime:   now,
		contracts: make(map[int64]*contracts.Contract),
		images:    make(map[int64][]byte),
		pdfHashes: make(map[int64]string),
	}
}

// create stores a validated request and opens a signature slot per role.
func (cs *contractStore) create(req *contracts.CreateRequest) *contracts.Contract {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	now := cs.nowTime().UTC()
	cs.nextID++
	c := &contracts.Contract{
		ID:           cs.nextID,
		Type:         req.Type,
		FormVersion:  formVersion,
		Status:       contracts.StatusDraft,
		Address:      strings.TrimSpace(req.Address),
		SalePrice:    utils.Value(req.SalePrice),
		Deposit:      utils.Value(req.Deposit),
		MonthlyRent:  utils.Value(req.MonthlyRent),
		ContractDate: req.ContractDate,
		HandoverDate: req.HandoverDate,
		MgmtNote:     req.MgmtNote,
		Schedule:     req.Schedule,
		Brokerage:    req.Brokerage,
		Attachments:  req.Attachments,
		SpecialTerms: req.SpecialTerms,
		CreatedAt:    now.Format(time.RFC3339),
		UpdatedAt:    now.Format(time.RFC3339),
	}
	for _, p := range req.Parties {
		switch p.Role {
		case contracts.RoleSeller:
			c.SellerName, c.SellerPhone = strings.TrimSpace(p.Name), strings.TrimSpace(p.Phone)
		case contracts.RoleBuyer:
			c.BuyerName, c.BuyerPhone = strings.TrimSpace(p.Name), strings.TrimSpace(p.Phone)
		}
	}
	c.PriceTotal = c.SalePrice
	if c.Type != contracts.TypeSale {
		c.PriceTotal = c.Deposit
	}
	c.DocHash = docHash(c)
	c.ShortHash = c.DocHash[:8]
	c.DocNo = contracts.NewDocNo(now, c.ShortHash[:6])

	for _, role := range contracts.SignatureRoles(c.Type) {
		cs.nextSigID++
		c.Signatures = append(c.Signatures, contracts.Signature{ID: cs.nextSigID, Role: contracts.ServerRole(c.Type, role)})
	}
	if req.Signatures != nil {
		captured := map[string]string{
			"seller": req.Signatures.Seller,
			"buyer":  req.Signatures.Buyer,
			"lessor": req.Signatures.Lessor,
			"lessee": req.Signatures.Lessee,
			"broker": req.Signatures.Broker,
		}
		for _, sig := range contracts.BuildSignatures(c.Type, captured, now) {
			data, _, err := contracts.DecodeDataURL(sig.DataURL)
			if err != nil {
				// A bad signature never blocks the contract itself.
				continue
			}
			cs.sign(c, contracts.ServerRole(c.Type, sig.Role), data, now)
		}
	}

	cs.contracts[c.ID] = c
	return copyContract(c)
}

func (cs *contractStore) get(id int64) (*contracts.Contract, error) {
	cs.lock.RLock()
	defer cs.lock.RUnlock()
	c, ok := cs.contracts[id]
	if !ok {
		return nil, deskerrors.ErrNotFound
	}
	out := copyContract(c)
	out.ComputedStatus = cs.computedStatus(c)
	return out, nil
}

// list filters by a free-text query over parties, address and doc number,
// newest first.
func (cs *contractStore) list(query string, t contracts.Type, page, perPage int) contracts.Page {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	var matched []*contracts.Contract
	for _, c := range cs.contracts {
		if t != "" && c.Type != t {
			continue
		}
		if q != "" && !matchesQuery(c, q) {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	result := contracts.Page{
		Contracts: []contracts.Contract{},
		Page:      page,
		Total:     len(matched),
		Pages:     int(math.Ceil(float64(len(matched)) / float64(perPage))),
	}
	start := (page - 1) * perPage
	for i := start; i < len(matched) && i < start+perPage; i++ {
		c := copyContract(matched[i])
		c.ComputedStatus = cs.computedStatus(matched[i])
		result.Contracts = append(result.Contracts, *c)
	}
	return result
}

func (cs *contractStore) delete(id int64) error {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	c, ok := cs.contracts[id]
	if !ok {
		return deskerrors.ErrNotFound
	}
	for _, sig := range c.Signatures {
		delete(cs.images, sig.ID)
	}
	delete(cs.pdfHashes, id)
	delete(cs.contracts, id)
	return nil
}

// upload stores an image for the signature slot of role.
func (cs *contractStore) upload(id int64, role contracts.Role, image []byte) (*contracts.Signature, error) {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	c, ok := cs.contracts[id]
	if !ok {
		return nil, deskerrors.ErrNotFound
	}
	sig := cs.sign(c, role, image, cs.nowTime().UTC())
	if sig == nil {
		return nil, errNoSignatureSlot
	}
	out := *sig
	return &out, nil
}

func (cs *contractStore) image(id, signatureID int64) ([]byte, bool) {
	cs.lock.RLock()
	defer cs.lock.RUnlock()
	c, ok := cs.contracts[id]
	if !ok {
		return nil, false
	}
	for _, sig := range c.Signatures {
		if sig.ID == signatureID {
			img, ok := cs.images[signatureID]
			return img, ok
		}
	}
	return nil, false
}

// render produces the document body and records its hash.
func (cs *contractStore) render(id int64, preview bool, include []string) ([]byte, error) {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	c, ok := cs.contracts[id]
	if !ok {
		return nil, deskerrors.ErrNotFound
	}
	doc := renderDocument(c, preview, include)
	if !preview {
		sum := sha256.Sum256(doc)
		cs.pdfHashes[id] = hex.EncodeToString(sum[:])
	}
	return doc, nil
}

func (cs *contractStore) info(id int64) (*contracts.PDFInfo, error) {
	cs.lock.RLock()
	defer cs.lock.RUnlock()
	c, ok := cs.contracts[id]
	if !ok {
		return nil, deskerrors.ErrNotFound
	}
	return &contracts.PDFInfo{
		ContractID:  c.ID,
		DocNo:       c.DocNo,
		DocHash:     c.DocHash,
		PDFHash:     cs.pdfHashes[id],
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		FormVersion: c.FormVersion,
	}, nil
}

// sign must be called with the write lock held.
func (cs *contractStore) sign(c *contracts.Contract, role contracts.Role, image []byte, now time.Time) *contracts.Signature {
	for i := range c.Signatures {
		sig := &c.Signatures[i]
		if sig.Role != role {
			continue
		}
		cs.images[sig.ID] = image
		sig.SignedAt = now.Format(time.RFC3339)
		sig.ImageURL = fmt.Sprintf("%s/contracts/%d/signatures/%d.png", BasePath, c.ID, sig.ID)
		c.UpdatedAt = now.Format(time.RFC3339)
		return sig
	}
	return nil
}

func (cs *contractStore) computedStatus(c *contracts.Contract) contracts.Status {
	return contracts.AutoStatus(contracts.ParseDate(c.ContractDate), contracts.ParseDate(c.HandoverDate), cs.nowTime())
}

func matchesQuery(c *contracts.Contract, q string) bool {
	for _, field := range []string{c.SellerName, c.BuyerName, c.Address, c.DocNo} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// docHash fingerprints the fields that make up the agreement.
func docHash(c *contracts.Contract) string {
	payload, _ := json.Marshal(struct {
		Type         contracts.Type `json:"type"`
		Seller       string         `json:"seller"`
		Buyer        string         `json:"buyer"`
		Address      string         `json:"address"`
		SalePrice    int64          `json:"sale_price"`
		Deposit      int64          `json:"deposit"`
		MonthlyRent  int64          `json:"monthly_rent"`
		ContractDate string         `json:"contract_date"`
		HandoverDate string         `json:"handover_date"`
		SpecialTerms string         `json:"special_terms"`
		CreatedAt    string         `json:"created_at"`
	}{c.Type, c.SellerName, c.BuyerName, c.Address, c.SalePrice, c.Deposit, c.MonthlyRent,
		c.ContractDate, c.HandoverDate, c.SpecialTerms, c.CreatedAt})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// renderDocument builds a minimal single-page PDF body listing the contract.
func renderDocument(c *contracts.Contract, preview bool, include []string) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	title := "CONTRACT"
	if preview {
		title = "PREVIEW"
	}
	fmt.Fprintf(&b, "%% %s %s\n", title, c.DocNo)
	fmt.Fprintf(&b, "%% type=%s address=%s\n", c.Type, c.Address)
	fmt.Fprintf(&b, "%% price=%s period=%s\n", contracts.FormatPrice(c), contracts.Period(c))
	fmt.Fprintf(&b, "%% doc_hash=%s\n", c.DocHash)
	if len(include) > 0 {
		fmt.Fprintf(&b, "%% include=%s\n", strings.Join(include, ","))
	}
	for _, sig := range c.Signatures {
		signed := "unsigned"
		if sig.SignedAt != "" {
			signed = "signed " + sig.SignedAt
		}
		fmt.Fprintf(&b, "%% %s %s\n", sig.Role, signed)
	}
	b.WriteString("%%EOF\n")
	return []byte(b.String())
}

func copyContract(c *contracts.Contract) *contracts.Contract {
	out := *c
	out.Signatures = append([]contracts.Signature(nil), c.Signatures...)
	return &out
}
