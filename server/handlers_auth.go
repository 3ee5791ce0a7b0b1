package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/contract-desk/auth"
	"github.com/jrsteele09/contract-desk/guard"
)

// LoginPageData is the login form.
type LoginPageData struct {
	Email    string
	Remember bool
	Next     string
	// SocialLogin shows the provider buttons.
	SocialLogin bool
}

// SignupPageData is the signup form. Passwords are never echoed back.
type SignupPageData struct {
	Name  string
	Email string
}

// TokenPageData carries a one-time email token through a form.
type TokenPageData struct {
	Token string
}

// LoginPageHandler displays the login page (GET /login). The remembered user,
// if any, only pre-fills the form.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := guard.SafeNext(r.URL.Query().Get(guard.NextParam), RouteIndex)
		if s.auth.IsAuthenticated() {
			http.Redirect(w, r, next, http.StatusSeeOther)
			return
		}
		data := LoginPageData{Next: next, SocialLogin: s.oauthStart != ""}
		if u := s.auth.RememberedUser(); u != nil {
			data.Email = u.Email
			data.Remember = true
		}
		v := s.view("로그인", data)
		if r.URL.Query().Get("message") == "signup" {
			v.Message = "Account created. Please sign in."
		}
		s.renderPage(w, http.StatusOK, "login.html", v)
	}
}

// LoginSubmitHandler handles the login form (POST /login).
func (s *Server) LoginSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		data := LoginPageData{
			Email:    strings.TrimSpace(r.PostForm.Get("email")),
			Remember: r.PostForm.Get("remember") == "on",
			Next:     guard.SafeNext(r.PostForm.Get(guard.NextParam), RouteIndex),
		}

		result := s.auth.Login(r.Context(), data.Email, r.PostForm.Get("password"), data.Remember)
		if !result.Success {
			v := s.view("로그인", data)
			v.Error = result.Error
			s.renderPage(w, http.StatusUnauthorized, "login.html", v)
			return
		}
		http.Redirect(w, r, data.Next, http.StatusSeeOther)
	}
}

func (s *Server) SignupPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, http.StatusOK, "signup.html", s.view("회원가입", SignupPageData{}))
	}
}

// SignupSubmitHandler registers an account and sends the user to the login
// page. Signup never signs in.
func (s *Server) SignupSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		data := SignupPageData{
			Name:  strings.TrimSpace(r.PostForm.Get("name")),
			Email: strings.TrimSpace(r.PostForm.Get("email")),
		}
		password := r.PostForm.Get("password")

		var errMsg string
		if password != r.PostForm.Get("confirm") {
			errMsg = "Passwords do not match."
		} else if result := s.auth.Signup(r.Context(), data.Email, password, data.Name); !result.Success {
			errMsg = result.Error
		}
		if errMsg != "" {
			v := s.view("회원가입", data)
			v.Error = errMsg
			s.renderPage(w, http.StatusBadRequest, "signup.html", v)
			return
		}
		http.Redirect(w, r, RouteLogin+"?message=signup", http.StatusSeeOther)
	}
}

// redirectNavigator turns the manager's navigation reset into a redirect.
type redirectNavigator struct {
	w http.ResponseWriter
	r *http.Request
}

func (n redirectNavigator) Navigate(path string) {
	http.Redirect(n.w, n.r, path, http.StatusSeeOther)
}

var _ auth.Navigator = redirectNavigator{}

// LogoutHandler never fails; the user always leaves the session.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.auth.Logout(r.Context(), redirectNavigator{w: w, r: r})
	}
}

func (s *Server) ForgotPasswordPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, http.StatusOK, "forgot.html", s.view("비밀번호 찾기", nil))
	}
}

func (s *Server) ForgotPasswordSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		result := s.auth.RequestPasswordReset(r.Context(), r.PostForm.Get("email"))
		s.renderResult(w, "forgot.html", "비밀번호 찾기", nil, result)
	}
}

func (s *Server) ResetPasswordPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := TokenPageData{Token: r.URL.Query().Get("token")}
		v := s.view("비밀번호 재설정", data)
		if data.Token == "" {
			v.Error = "Missing token."
		}
		s.renderPage(w, http.StatusOK, "reset.html", v)
	}
}

func (s *Server) ResetPasswordSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		data := TokenPageData{Token: r.PostForm.Get("token")}
		password := r.PostForm.Get("password")
		if password != r.PostForm.Get("confirm") {
			s.renderResult(w, "reset.html", "비밀번호 재설정", data, auth.ActionResult{Error: "Passwords do not match."})
			return
		}
		result := s.auth.ResetPassword(r.Context(), data.Token, password)
		s.renderResult(w, "reset.html", "비밀번호 재설정", data, result)
	}
}

// VerifyEmailHandler redeems the link from the verification mail.
func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := s.auth.VerifyEmail(r.Context(), r.URL.Query().Get("token"))
		s.renderResult(w, "notice.html", "이메일 인증", nil, result)
	}
}

func (s *Server) renderResult(w http.ResponseWriter, page, title string, data any, result auth.ActionResult) {
	v := s.view(title, data)
	status := http.StatusOK
	if result.Success {
		v.Message = result.Message
	} else {
		v.Error = result.Error
		status = http.StatusBadRequest
	}
	s.renderPage(w, status, page, v)
}
