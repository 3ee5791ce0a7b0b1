package devapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/contract-desk/apiclient"
	deskerrors "github.com/jrsteele09/contract-desk/internal/errors"
	"github.com/jrsteele09/contract-desk/token/jwt"
	"github.com/jrsteele09/contract-desk/users"
	"github.com/rs/zerolog/log"
)

const (
	AccessCookie  = "access_token_cookie"
	RefreshCookie = "refresh_token_cookie"
	CSRFCookie    = apiclient.CSRFCookieName

	// Newly registered accounts act as agents.
	defaultRole = "agent"
)

type credentials struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (s *Server) RegisterHandler(sendVerification bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in credentials
		if err := decodeJSON(r, &in); err != nil || in.Name == nil || in.Email == nil || in.Password == nil {
			writeMessage(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := users.ValidateEmail(email); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid email address")
			return
		}
		if err := users.ValidatePassword(*in.Password); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		hash, err := users.HashPassword(*in.Password)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "Registration failed")
			return
		}
		account := &users.Account{
			User: users.User{
				Email:     email,
				Name:      strings.TrimSpace(*in.Name),
				Role:      defaultRole,
				CreatedAt: users.Timestamp(s.nowTime()),
			},
			PasswordHash: hash,
		}
		if err := s.users.Create(account); err != nil {
			if errors.Is(err, deskerrors.ErrUserExists) {
				writeMessage(w, http.StatusConflict, "User already exists")
				return
			}
			log.Warn().Err(err).Msg("devapi: create user")
			writeMessage(w, http.StatusInternalServerError, "Registration failed")
			return
		}

		if !sendVerification {
			writeMessage(w, http.StatusCreated, "User created successfully")
			return
		}
		raw, err := s.tickets.issue(account.ID, PurposeVerifyEmail, verifyTicketTTL)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "Registration failed")
			return
		}
		s.send(Mail{To: email, Purpose: PurposeVerifyEmail, Token: raw})
		writeMessage(w, http.StatusCreated, "Account created. Check your email to verify it.")
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in credentials
		if err := decodeJSON(r, &in); err != nil || in.Email == nil || in.Password == nil {
			writeMessage(w, http.StatusBadRequest, "Missing email or password")
			return
		}
		account, err := s.authenticate(*in.Email, *in.Password)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		userID := jwt.UserID(account.ID)
		access, err := s.creator.CreateAccessToken(userID, account.TokenVersion, s.accessTTL)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "Login failed")
			return
		}
		refresh, csrf, err := s.creator.CreateRefreshToken(userID, account.TokenVersion, s.refreshTTL)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "Login failed")
			return
		}
		s.setRefreshCookies(w, refresh, csrf)

		user := account.User
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": access,
			"user":         &user,
		})
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(RefreshCookie)
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": `Missing cookie "` + RefreshCookie + `"`})
			return
		}
		account, err := s.refreshAccount(cookie.Value, r.Header.Get(apiclient.CSRFHeader))
		switch {
		case errors.Is(err, deskerrors.ErrCSRFMismatch):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "CSRF double submit tokens do not match"})
			return
		case errors.Is(err, deskerrors.ErrInvalidRefreshToken):
			writeMessage(w, http.StatusUnauthorized, "Token refresh failed")
			return
		case err != nil:
			writeMessage(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		access, err := s.creator.CreateAccessToken(jwt.UserID(account.ID), account.TokenVersion, s.accessTTL)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Token refresh failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": access})
	}
}

// LogoutHandler always succeeds. A valid access token also revokes every
// token issued to its user.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		message := "Logged out"
		if raw := bearerToken(r); raw != "" {
			if account, err := s.accountFromToken(raw, jwt.TypeAccess); err == nil {
				if _, err := s.users.BumpTokenVersion(account.ID); err != nil {
					log.Warn().Err(err).Int64("user_id", account.ID).Msg("devapi: bump token version")
				} else {
					message = "Logged out successfully"
				}
			}
		}
		s.unsetCookies(w)
		writeMessage(w, http.StatusOK, message)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFrom(r.Context())
		if account == nil {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		user := account.User
		writeJSON(w, http.StatusOK, &user)
	}
}

func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Email string `json:"email"`
		}
		if err := decodeJSON(r, &in); err != nil || strings.TrimSpace(in.Email) == "" {
			writeMessage(w, http.StatusBadRequest, "Email is required")
			return
		}
		if account, err := s.users.GetByEmail(strings.ToLower(strings.TrimSpace(in.Email))); err == nil {
			raw, err := s.tickets.issue(account.ID, PurposePasswordReset, resetTicketTTL)
			if err == nil {
				s.send(Mail{To: account.Email, Purpose: PurposePasswordReset, Token: raw})
			}
		}
		// Same answer whether or not the account exists.
		writeMessage(w, http.StatusOK, "If that email is registered, a reset link has been sent.")
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Token       string `json:"token"`
			NewPassword string `json:"new_password"`
		}
		if err := decodeJSON(r, &in); err != nil || in.Token == "" {
			writeMessage(w, http.StatusBadRequest, "Token is required")
			return
		}
		if err := users.ValidatePassword(in.NewPassword); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		userID, ok := s.tickets.redeem(in.Token, PurposePasswordReset)
		if !ok {
			writeMessage(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		account, err := s.users.GetByID(userID)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		hash, err := users.HashPassword(in.NewPassword)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "Password reset failed")
			return
		}
		account.PasswordHash = hash
		if err := s.users.Update(account); err != nil {
			writeMessage(w, http.StatusInternalServerError, "Password reset failed")
			return
		}
		// Sessions opened with the old password end here.
		if _, err := s.users.BumpTokenVersion(account.ID); err != nil {
			log.Warn().Err(err).Int64("user_id", account.ID).Msg("devapi: bump token version")
		}
		writeMessage(w, http.StatusOK, "Password has been reset.")
	}
}

func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Token string `json:"token"`
		}
		if err := decodeJSON(r, &in); err != nil || in.Token == "" {
			writeMessage(w, http.StatusBadRequest, "Token is required")
			return
		}
		userID, ok := s.tickets.redeem(in.Token, PurposeVerifyEmail)
		if !ok {
			writeMessage(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		account, err := s.users.GetByID(userID)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		account.Verified = true
		if err := s.users.Update(account); err != nil {
			writeMessage(w, http.StatusInternalServerError, "Verification failed")
			return
		}
		writeMessage(w, http.StatusOK, "Email verified.")
	}
}

// authenticate returns ErrInvalidCredentials for an unknown email as well as
// a wrong password.
func (s *Server) authenticate(email, password string) (*users.Account, error) {
	account, err := s.users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if !errors.Is(err, deskerrors.ErrUserNotFound) {
			log.Warn().Err(err).Msg("devapi: look up user")
		}
		return nil, deskerrors.ErrInvalidCredentials
	}
	if !users.CheckPasswordHash(password, account.PasswordHash) {
		return nil, deskerrors.ErrInvalidCredentials
	}
	return account, nil
}

// refreshAccount checks a refresh cookie against the double-submit header.
func (s *Server) refreshAccount(refreshToken, csrf string) (*users.Account, error) {
	claims, err := s.inspector.Verify(refreshToken, jwt.TypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", deskerrors.ErrInvalidRefreshToken, err)
	}
	if csrf == "" || csrf != claims.CSRF {
		return nil, deskerrors.ErrCSRFMismatch
	}
	return s.accountForClaims(claims)
}

func (s *Server) accountFromToken(raw, tokenType string) (*users.Account, error) {
	claims, err := s.inspector.Verify(raw, tokenType)
	if err != nil {
		return nil, err
	}
	return s.accountForClaims(claims)
}

func (s *Server) accountForClaims(claims *jwt.Claims) (*users.Account, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, deskerrors.ErrInvalidToken
	}
	account, err := s.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if account.TokenVersion != claims.TokenVersion {
		return nil, deskerrors.ErrTokenRevoked
	}
	return account, nil
}

func (s *Server) setRefreshCookies(w http.ResponseWriter, refresh, csrf string) {
	maxAge := int(s.refreshTTL / time.Second)
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    refresh,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookie,
		Value:    csrf,
		Path:     "/",
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) unsetCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessCookie, RefreshCookie, CSRFCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
}
