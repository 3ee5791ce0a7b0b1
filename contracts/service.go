package contracts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/contract-desk/apiclient"
	"github.com/pkg/errors"
)

// API is the slice of the HTTP client the service needs.
type API interface {
	Do(ctx context.Context, method, path string, body any, opts ...apiclient.RequestOption) (*apiclient.Response, error)
	GetJSON(ctx context.Context, path string, out any, opts ...apiclient.RequestOption) error
	PostJSON(ctx context.Context, path string, body, out any, opts ...apiclient.RequestOption) error
	PutJSON(ctx context.Context, path string, body, out any, opts ...apiclient.RequestOption) error
	Delete(ctx context.Context, path string, out any, opts ...apiclient.RequestOption) error
}

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

type Service struct {
	api API
}

func NewService(api API) (*Service, error) {
	if api == nil {
		return nil, errors.New("[contracts.NewService] API client is required")
	}
	return &Service{api: api}, nil
}

type ListParams struct {
	Page    int
	PerPage int
	Query   string
	Type    Type
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	page := p.Page
	if page < 1 {
		page = 1
	}
	perPage := p.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("per_page", strconv.Itoa(perPage))
	if q := strings.TrimSpace(p.Query); q != "" {
		v.Set("q", q)
	}
	if p.Type != "" {
		v.Set("type", string(p.Type))
	}
	return v
}

func (s *Service) List(ctx context.Context, params ListParams) (*Page, error) {
	var page Page
	if err := s.api.GetJSON(ctx, "/contracts", &page, apiclient.WithQuery(params.values())); err != nil {
		return nil, errors.Wrap(err, "[contracts.List] list contracts")
	}
	return &page, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Contract, error) {
	var resp struct {
		Contract *Contract `json:"contract"`
	}
	if err := s.api.GetJSON(ctx, contractPath(id), &resp); err != nil {
		return nil, errors.Wrapf(err, "[contracts.Get] %d", id)
	}
	if resp.Contract == nil {
		return nil, errors.New("[contracts.Get] response has no contract")
	}
	return resp.Contract, nil
}

// Create validates locally first. A server-side validation failure is
// returned as a ValidationError too.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := s.api.PostJSON(ctx, "/contracts", req, &resp); err != nil {
		var httpErr *apiclient.HTTPError
		if errors.As(err, &httpErr) && len(httpErr.Details) > 0 {
			return 0, ValidationError(httpErr.Details)
		}
		return 0, errors.Wrap(err, "[contracts.Create] create contract")
	}
	return resp.ID, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, contractPath(id), nil); err != nil {
		return errors.Wrapf(err, "[contracts.Delete] %d", id)
	}
	return nil
}

// PDF downloads the final rendered document.
func (s *Service) PDF(ctx context.Context, id int64) ([]byte, error) {
	return s.download(ctx, contractPath(id)+"/pdf", nil)
}

// PDFPreview renders a preview, optionally including signatures and stamps.
func (s *Service) PDFPreview(ctx context.Context, id int64, includeSignatures, includeStamps bool) ([]byte, error) {
	var include []string
	if includeSignatures {
		include = append(include, "signatures")
	}
	if includeStamps {
		include = append(include, "stamps")
	}
	q := url.Values{}
	if len(include) > 0 {
		q.Set("include", strings.Join(include, ","))
	}
	return s.download(ctx, contractPath(id)+"/pdf/preview", q)
}

func (s *Service) PDFInfo(ctx context.Context, id int64) (*PDFInfo, error) {
	var info PDFInfo
	if err := s.api.GetJSON(ctx, contractPath(id)+"/pdf/info", &info); err != nil {
		return nil, errors.Wrapf(err, "[contracts.PDFInfo] %d", id)
	}
	return &info, nil
}

// UploadSignature stores a drawn signature for one role of the contract.
func (s *Service) UploadSignature(ctx context.Context, id int64, t Type, role Role, dataURL string) (*Signature, error) {
	if _, _, err := DecodeDataURL(dataURL); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("%s/signatures/%s", contractPath(id), ServerRole(t, role))
	var resp struct {
		OK        bool       `json:"ok"`
		Signature *Signature `json:"signature"`
	}
	if err := s.api.PutJSON(ctx, path, map[string]string{"image": dataURL}, &resp); err != nil {
		return nil, errors.Wrapf(err, "[contracts.UploadSignature] %s", path)
	}
	if !resp.OK || resp.Signature == nil {
		return nil, errors.New("[contracts.UploadSignature] server did not accept the signature")
	}
	return resp.Signature, nil
}

func (s *Service) download(ctx context.Context, path string, q url.Values) ([]byte, error) {
	opts := []apiclient.RequestOption{apiclient.WithHeader("Accept", "application/pdf")}
	if len(q) > 0 {
		opts = append(opts, apiclient.WithQuery(q))
	}
	resp, err := s.api.Do(ctx, http.MethodGet, path, nil, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "[contracts.download] %s", path)
	}
	return resp.Body, nil
}

func contractPath(id int64) string {
	return "/contracts/" + strconv.FormatInt(id, 10)
}
