package devapi

import "net/http"

const (
	RouteRegister      = BasePath + "/auth/register"
	RouteLogin         = BasePath + "/auth/login"
	RouteRefresh       = BasePath + "/auth/refresh"
	RouteLogout        = BasePath + "/auth/logout"
	RouteMe            = BasePath + "/auth/me"
	RouteEmailRegister = BasePath + "/auth/email/register"
	RouteEmailLogin    = BasePath + "/auth/email/login"
	RouteEmailForgot   = BasePath + "/auth/email/forgot"
	RouteEmailReset    = BasePath + "/auth/email/reset"
	RouteEmailVerify   = BasePath + "/auth/email/verify"

	RouteContracts         = BasePath + "/contracts"
	RouteContract          = BasePath + "/contracts/{id}"
	RouteContractPDF       = BasePath + "/contracts/{id}/pdf"
	RouteContractPreview   = BasePath + "/contracts/{id}/pdf/preview"
	RouteContractPDFInfo   = BasePath + "/contracts/{id}/pdf/info"
	RouteContractSignature = BasePath + "/contracts/{id}/signatures/{role}"
	RouteSignatureImage    = BasePath + "/contracts/{id}/signatures/{file}"
)

func (s *Server) initRoutes() {
	limited := func(h http.HandlerFunc) http.HandlerFunc {
		return ChainMiddleware(h, s.APIMiddleware(s.RateLimitMiddleware)...)
	}
	api := func(h http.HandlerFunc) http.HandlerFunc {
		return ChainMiddleware(h, s.APIMiddleware()...)
	}
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return ChainMiddleware(h, s.APIMiddleware(s.RequireAccessToken)...)
	}

	s.RegisterRouteFunc("POST "+RouteRegister, api(s.RegisterHandler(false)))
	s.RegisterRouteFunc("POST "+RouteLogin, limited(s.LoginHandler()))
	s.RegisterRouteFunc("POST "+RouteRefresh, api(s.RefreshHandler()))
	s.RegisterRouteFunc("POST "+RouteLogout, api(s.LogoutHandler()))
	s.RegisterRouteFunc("GET "+RouteMe, authed(s.MeHandler()))

	s.RegisterRouteFunc("POST "+RouteEmailRegister, limited(s.RegisterHandler(true)))
	s.RegisterRouteFunc("POST "+RouteEmailLogin, limited(s.LoginHandler()))
	s.RegisterRouteFunc("POST "+RouteEmailForgot, limited(s.ForgotPasswordHandler()))
	s.RegisterRouteFunc("POST "+RouteEmailReset, limited(s.ResetPasswordHandler()))
	s.RegisterRouteFunc("POST "+RouteEmailVerify, limited(s.VerifyEmailHandler()))

	s.RegisterRouteFunc("GET "+RouteContracts, authed(s.ListContractsHandler()))
	s.RegisterRouteFunc("POST "+RouteContracts, authed(s.CreateContractHandler()))
	s.RegisterRouteFunc("GET "+RouteContract, authed(s.GetContractHandler()))
	s.RegisterRouteFunc("DELETE "+RouteContract, authed(s.DeleteContractHandler()))
	s.RegisterRouteFunc("GET "+RouteContractPDF, authed(s.ContractPDFHandler(false)))
	s.RegisterRouteFunc("GET "+RouteContractPreview, authed(s.ContractPDFHandler(true)))
	s.RegisterRouteFunc("GET "+RouteContractPDFInfo, authed(s.ContractPDFInfoHandler()))
	s.RegisterRouteFunc("PUT "+RouteContractSignature, authed(s.UploadSignatureHandler()))
	s.RegisterRouteFunc("GET "+RouteSignatureImage, authed(s.SignatureImageHandler()))
}
