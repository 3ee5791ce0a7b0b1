package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	r := s.router
	r.Use(chimw.RequestID, s.LoggingMiddleware, s.RecoverMiddleware, s.FrameSecurityMiddleware, s.SameOriginMiddleware)
	r.NotFound(s.NotFoundHandler())

	r.Get(RouteHealthz, s.HealthzHandler())
	if s.metrics != nil {
		r.Method(http.MethodGet, RouteMetrics, promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}
	r.With(s.CacheMiddleware).Handle(RouteStatic, FileServerHandler())

	r.Group(func(r chi.Router) {
		r.Use(s.GuardMiddleware)

		r.Get(RouteLogin, s.LoginPageHandler())
		r.Post(RouteLogin, s.LoginSubmitHandler())
		r.Get(RouteSignup, s.SignupPageHandler())
		r.Post(RouteSignup, s.SignupSubmitHandler())
		r.Post(RouteLogout, s.LogoutHandler())
		r.Get(RouteForgotPassword, s.ForgotPasswordPageHandler())
		r.Post(RouteForgotPassword, s.ForgotPasswordSubmitHandler())
		r.Get(RouteResetPassword, s.ResetPasswordPageHandler())
		r.Post(RouteResetPassword, s.ResetPasswordSubmitHandler())
		r.Get(RouteVerifyEmail, s.VerifyEmailHandler())
		r.Get(RouteOAuthStart, s.OAuthStartHandler())
		r.Get(RouteOAuthComplete, s.OAuthCompleteHandler())

		r.Get(RouteIndex, s.IndexHandler())

		r.Get(RouteContracts, s.ContractListHandler())
		r.Get(RouteContractNew, s.ContractNewPageHandler())
		r.Post(RouteContractNew, s.ContractCreateHandler())
		r.Get(RouteContract, s.ContractDetailHandler())
		r.Post(RouteContractDelete, s.ContractDeleteHandler())
		r.Get(RouteContractPDF, s.ContractPDFHandler(false))
		r.Get(RouteContractPreview, s.ContractPDFHandler(true))
		r.Post(RouteContractSignature, s.ContractSignatureHandler())

		r.Get(RouteClients, s.ClientListHandler())
		r.Post(RouteClients, s.ClientSaveHandler())
		r.Post(RouteClientDelete, s.ClientDeleteHandler())

		r.Get(RouteSchedule, s.ScheduleHandler())
		r.Post(RouteSchedule, s.EventSaveHandler())
		r.Post(RouteEventDelete, s.EventDeleteHandler())
	})
}
