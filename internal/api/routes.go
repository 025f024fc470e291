package api

import (
	"fmt"
	"net/http"

	"github.com/JustJay7/chamber-desk/web"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, h *Handlers) error {
	tmpl, err := web.Templates(TemplateFuncs(h.cfg.Location()))
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	// Case ids often carry slashes; match them escaped as %2F
	router.UseRawPath = true
	router.MaxMultipartMemory = h.cfg.MaxUploadBytes

	// Public routes
	router.StaticFS("/static", http.FS(web.Static()))
	router.GET("/login", h.LoginPage)
	router.POST("/login", h.Login)
	router.GET("/logout", h.Logout)
	router.GET("/api/health", h.HealthCheck)
	router.POST("/api/login", h.LoginAPI)

	protected := router.Group("/", h.gate.Middleware())

	// HTML routes
	protected.GET("/", h.DashboardPage)
	protected.GET("/cases", h.CasesPage)
	protected.POST("/cases", h.IntakeCase)
	protected.GET("/hearings", h.HearingsPage)
	protected.POST("/hearings", h.ScheduleHearing)
	protected.GET("/statutes", h.StatutesPage)
	protected.GET("/billing", h.BillingPage)
	protected.POST("/billing/strategy", h.SaveStrategy)
	protected.POST("/billing/memo", h.GenerateMemo)
	protected.POST("/billing/payment", h.RecordPayment)
	protected.POST("/billing/bail", h.AssessBail)
	protected.GET("/research", h.ResearchPage)
	protected.POST("/research", h.AddResearch)
	protected.GET("/documents", h.DocumentsPage)
	protected.POST("/documents", h.UploadDocument)
	protected.GET("/documents/:id", h.DownloadDocument)
	protected.GET("/ecourts", h.ECourtsPage)
	protected.POST("/ecourts", h.LookupCNR)
	protected.GET("/ecourts/captcha/:id", h.GetCaptcha)
	protected.POST("/ecourts/captcha/:id", h.SolveCaptchaForm)

	// API routes
	api := protected.Group("/api")
	{
		api.GET("/dashboard", h.DashboardAPI)

		// Case endpoints
		api.GET("/cases", h.ListCasesAPI)
		api.POST("/cases", h.IntakeAPI)
		api.GET("/cases/conflicts", h.ConflictsAPI)
		api.GET("/cases/:caseID", h.GetCaseAPI)
		api.PUT("/cases/:caseID/strategy", h.StrategyAPI)
		api.PUT("/cases/:caseID/section", h.SectionAPI)
		api.POST("/cases/:caseID/memo", h.MemoAPI)
		api.POST("/cases/:caseID/payments", h.PaymentAPI)
		api.POST("/bail", h.BailAPI)

		// Hearing endpoints
		api.GET("/hearings", h.ListHearingsAPI)
		api.POST("/hearings", h.ScheduleAPI)
		api.GET("/hearings/today", h.TodayAPI)

		// Statute bridge
		api.GET("/statutes", h.StatutesAPI)
		api.GET("/statutes/ipc/:section", h.LookupIPCAPI)
		api.GET("/statutes/bns/:section", h.LookupBNSAPI)

		api.GET("/research", h.ListResearchAPI)
		api.POST("/research", h.AddResearchAPI)

		api.GET("/documents", h.ListDocumentsAPI)
		api.POST("/documents", h.UploadDocumentAPI)
		api.GET("/documents/:id", h.DownloadDocument)

		// e-Courts lookups
		api.GET("/ecourts/:cnr", h.LookupCNRAPI)
		api.GET("/ecourts/:cnr/history", h.CNRHistoryAPI)

		// CAPTCHA endpoints
		api.GET("/captcha", h.PendingCaptchasAPI)
		api.GET("/captcha/:id", h.GetCaptcha)
		api.POST("/captcha/:id/solve", h.SolveCaptcha)

		// Cache stats
		api.GET("/cache/stats", h.CacheStats)
	}

	return nil
}
