package devapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/contract-desk/contracts"
	deskerrors "github.com/jrsteele09/contract-desk/internal/errors"
)

const defaultPerPage = 10

var errNoSignatureSlot = errors.New("no signature slot for role")

var serverRoles = map[contracts.Role]bool{
	contracts.RoleSeller: true,
	contracts.RoleBuyer:  true,
	contracts.RoleLessor: true,
	contracts.RoleLessee: true,
	contracts.RoleBroker: true,
	contracts.RoleAgent:  true,
}

func (s *Server) CreateContractHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contracts.CreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "VALIDATION_ERROR",
				"details": map[string]string{"body": "요청 본문이 올바른 JSON이 아닙니다"},
			})
			return
		}
		if err := req.Validate(); err != nil {
			var verr contracts.ValidationError
			if errors.As(err, &verr) {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR", "details": verr})
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		c := s.contracts.create(&req)
		writeJSON(w, http.StatusCreated, map[string]int64{"id": c.ID})
	}
}

func (s *Server) ListContractsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := positiveInt(q.Get("page"), 1)
		perPage := positiveInt(q.Get("per_page"), defaultPerPage)
		if perPage > contracts.MaxPerPage {
			perPage = contracts.MaxPerPage
		}
		var t contracts.Type
		if raw := strings.TrimSpace(q.Get("type")); raw != "" {
			t = contracts.Type(strings.ToUpper(raw))
			if !t.Valid() {
				writeError(w, http.StatusBadRequest, "유효하지 않은 계약 유형입니다")
				return
			}
		}
		writeJSON(w, http.StatusOK, s.contracts.list(q.Get("q"), t, page, perPage))
	}
}

func (s *Server) GetContractHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := contractID(w, r)
		if !ok {
			return
		}
		c, err := s.contracts.get(id)
		if err != nil {
			writeContractError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"contract": c})
	}
}

func (s *Server) DeleteContractHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := contractID(w, r)
		if !ok {
			return
		}
		if err := s.contracts.delete(id); err != nil {
			writeContractError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message":    "계약서가 성공적으로 삭제되었습니다",
			"deleted_id": id,
		})
	}
}

func (s *Server) ContractPDFHandler(preview bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := contractID(w, r)
		if !ok {
			return
		}
		var include []string
		if raw := r.URL.Query().Get("include"); raw != "" {
			include = strings.Split(raw, ",")
		}
		doc, err := s.contracts.render(id, preview, include)
		if err != nil {
			writeContractError(w, err)
			return
		}
		disposition := "attachment"
		if preview {
			disposition = "inline"
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", disposition+`; filename="contract_`+strconv.FormatInt(id, 10)+`.pdf"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc)
	}
}

func (s *Server) ContractPDFInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := contractID(w, r)
		if !ok {
			return
		}
		info, err := s.contracts.info(id)
		if err != nil {
			writeContractError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func (s *Server) UploadSignatureHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := contractID(w, r)
		if !ok {
			return
		}
		role := contracts.Role(strings.ToUpper(r.PathValue("role")))
		if !serverRoles[role] {
			writeError(w, http.StatusBadRequest, "유효하지 않은 서명 역할입니다")
			return
		}
		var in struct {
			Image string `json:"image"`
		}
		if err := decodeJSON(r, &in); err != nil || in.Image == "" {
			writeError(w, http.StatusBadRequest, "서명 이미지가 제공되지 않았습니다")
			return
		}
		image, _, err := contracts.DecodeDataURL(in.Image)
		if err != nil {
			writeError(w, http.StatusBadRequest, "서명 이미지 형식이 올바르지 않습니다")
			return
		}
		sig, err := s.contracts.upload(id, role, image)
		switch {
		case errors.Is(err, errNoSignatureSlot):
			writeError(w, http.StatusNotFound, "서명 레코드를 찾을 수 없습니다")
			return
		case err != nil:
			writeContractError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "signature": sig})
	}
}

func (s *Server) SignatureImageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := contractID(w, r)
		if !ok {
			return
		}
		sigID, err := strconv.ParseInt(strings.TrimSuffix(r.PathValue("file"), ".png"), 10, 64)
		if err != nil {
			writeError(w, http.StatusNotFound, "서명 이미지를 찾을 수 없습니다")
			return
		}
		image, found := s.contracts.image(id, sigID)
		if !found {
			writeError(w, http.StatusNotFound, "서명 이미지를 찾을 수 없습니다")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(image)
	}
}

func contractID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusNotFound, "계약서를 찾을 수 없습니다")
		return 0, false
	}
	return id, true
}

func writeContractError(w http.ResponseWriter, err error) {
	if errors.Is(err, deskerrors.ErrNotFound) {
		writeError(w, http.StatusNotFound, "계약서를 찾을 수 없습니다")
		return
	}
	writeError(w, http.StatusInternalServerError, "요청을 처리하는 중 오류가 발생했습니다")
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
