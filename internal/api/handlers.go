package api

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/JustJay7/chamber-desk/internal/auth"
	"github.com/JustJay7/chamber-desk/internal/billing"
	"github.com/JustJay7/chamber-desk/internal/config"
	"github.com/JustJay7/chamber-desk/internal/database"
	"github.com/JustJay7/chamber-desk/internal/documents"
	"github.com/JustJay7/chamber-desk/internal/ecourts"
	"github.com/JustJay7/chamber-desk/internal/practice"
	"github.com/JustJay7/chamber-desk/internal/statutes"
	"github.com/JustJay7/chamber-desk/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services are the domain services the handlers delegate to
type Services struct {
	DB        *gorm.DB
	Cases     *practice.Cases
	Hearings  *practice.Hearings
	Research  *practice.ResearchLog
	Dashboard *practice.Dashboard
	Statutes  *statutes.Bridge
	Documents *documents.Store
	ECourts   *ecourts.Service
	Captchas  *ecourts.CaptchaStore
	Gate      *auth.Gate
}

// Handlers holds all HTTP handlers
type Handlers struct {
	db        *gorm.DB
	cases     *practice.Cases
	hearings  *practice.Hearings
	research  *practice.ResearchLog
	dashboard *practice.Dashboard
	statutes  *statutes.Bridge
	documents *documents.Store
	ecourts   *ecourts.Service
	captchas  *ecourts.CaptchaStore
	gate      *auth.Gate
	logger    *logger.Logger
	cfg       *config.Config
	now       func() time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(svc Services, logger *logger.Logger, cfg *config.Config) *Handlers {
	return &Handlers{
		db:        svc.DB,
		cases:     svc.Cases,
		hearings:  svc.Hearings,
		research:  svc.Research,
		dashboard: svc.Dashboard,
		statutes:  svc.Statutes,
		documents: svc.Documents,
		ecourts:   svc.ECourts,
		captchas:  svc.Captchas,
		gate:      svc.Gate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// TemplateFuncs are the helpers available to every page template
func TemplateFuncs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"inr": billing.FormatINR,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format("02 Jan 2006 15:04")
		},
	}
}

// status maps domain errors to HTTP status codes and logs server faults
func (h *Handlers) status(err error) int {
	switch {
	case errors.Is(err, practice.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, practice.ErrNotFound),
		errors.Is(err, documents.ErrNotFound),
		errors.Is(err, ecourts.ErrCaptchaNotFound):
		return http.StatusNotFound
	case errors.Is(err, practice.ErrInvalidInput),
		errors.Is(err, billing.ErrNegativeFee),
		errors.Is(err, billing.ErrNegativeTerm),
		errors.Is(err, billing.ErrInvalidDetention),
		errors.Is(err, billing.ErrAmountTooLarge),
		errors.Is(err, billing.ErrNegativePayment),
		errors.Is(err, documents.ErrMissingCase),
		errors.Is(err, documents.ErrEmpty),
		errors.Is(err, ecourts.ErrInvalidCNR),
		errors.Is(err, ecourts.ErrEmptySolution):
		return http.StatusBadRequest
	case errors.Is(err, billing.ErrNotBailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, documents.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, documents.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("Request timed out", "error", err)
		return http.StatusGatewayTimeout
	default:
		h.logger.Error("Request failed", "error", err)
		return http.StatusInternalServerError
	}
}

func message(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

// fail answers with JSON under /api and the error page elsewhere
func (h *Handlers) fail(c *gin.Context, err error) {
	status := h.status(err)
	if isAPI(c) {
		c.JSON(status, gin.H{
			"success": false,
			"error":   message(err, status),
		})
		return
	}
	h.render(c, status, "error.html", gin.H{
		"title": "Error",
		"error": message(err, status),
	})
}

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", practice.ErrInvalidInput, err)
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	dbHealthy := false
	if sqlDB, err := h.db.DB(); err == nil {
		dbHealthy = sqlDB.PingContext(c.Request.Context()) == nil
	}

	status, state := http.StatusOK, "healthy"
	if !dbHealthy {
		status, state = http.StatusServiceUnavailable, "degraded"
	}
	c.JSON(status, gin.H{
		"status":   state,
		"database": dbHealthy,
		"auth":     h.gate.Enabled(),
		"time":     h.now().Unix(),
	})
}

// LoginAPI exchanges chamber credentials for a bearer token
func (h *Handlers) LoginAPI(c *gin.Context) {
	var req struct {
		ChamberID string `json:"chamber_id" binding:"required"`
		AccessKey string `json:"access_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err))
		return
	}
	if !h.gate.Enabled() {
		h.fail(c, badRequest(errors.New("login is not configured")))
		return
	}

	token, err := h.gate.Login(req.ChamberID, req.AccessKey)
	if err != nil {
		h.logger.Warn("Failed login", "chamber_id", req.ChamberID, "client_ip", c.ClientIP())
		h.fail(c, err)
		return
	}
	h.gate.SetCookie(c, token)
	ok(c, http.StatusOK, gin.H{"token": token})
}

// DashboardAPI returns the chamber summary
func (h *Handlers) DashboardAPI(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context(), h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, summary)
}

// ListCasesAPI returns the register
func (h *Handlers) ListCasesAPI(c *gin.Context) {
	cases, err := h.cases.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, cases)
}

// IntakeAPI onboards a brief after the conflict check
func (h *Handlers) IntakeAPI(c *gin.Context) {
	var req practice.IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err))
		return
	}
	created, err := h.cases.Intake(c.Request.Context(), req)
	if err != nil {
		var conflict *practice.ConflictError
		if errors.As(err, &conflict) {
			c.JSON(http.StatusConflict, gin.H{
				"success":        false,
				"error":          err.Error(),
				"conflicting_id": conflict.CaseID,
			})
			return
		}
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, created)
}

// ConflictsAPI lists every appearance of a party name
func (h *Handlers) ConflictsAPI(c *gin.Context) {
	hits, err := h.cases.ConflictSearch(c.Request.Context(), c.Query("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"conflict": len(hits) > 0,
		"data":     hits,
	})
}

// GetCaseAPI returns one brief
func (h *Handlers) GetCaseAPI(c *gin.Context) {
	brief, err := h.cases.Get(c.Request.Context(), c.Param("caseID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, brief)
}

// StrategyAPI replaces the strategy notes on a brief
func (h *Handlers) StrategyAPI(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err))
		return
	}
	if err := h.cases.SaveStrategy(c.Request.Context(), c.Param("caseID"), req.Notes); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"case_id": c.Param("caseID")})
}

// SectionAPI records the BNS section on a brief
func (h *Handlers) SectionAPI(c *gin.Context) {
	var req struct {
		SectionBNS string `json:"section_bns" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err))
		return
	}
	section := statutes.NormalizeSection(req.SectionBNS)
	if err := h.cases.SetSection(c.Request.Context(), c.Param("caseID"), section); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"case_id": c.Param("caseID"), "section_bns": section})
}

// MemoAPI generates a GST fee memo
func (h *Handlers) MemoAPI(c *gin.Context) {
	var req struct {
		Fee *float64 `json:"fee" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err))
		return
	}
	memo, err := h.cases.GenerateMemo(c.Request.Context(), c.Param("caseID"), *req.Fee)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    memo,
		"lines":   memo.Lines(),
	})
}

// PaymentAPI records a payment against a brief
func (h *Handlers) PaymentAPI(c *gin.Context) {
	var req struct {
		Amount float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err))
		return
	}
	st, err := h.cases.RecordPayment(c.Request.Context(), c.Param("caseID"), req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// BailAPI assesses statutory bail eligibility
func (h *Handlers) BailAPI(c *gin.Context) {
	var q billing.BailQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		h.fail(c, badRequest(err))
		return
	}
	assessment, err := billing.AssessBail(q)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, assessment)
}

// ListHearingsAPI returns the board in date order
func (h *Handlers) ListHearingsAPI(c *gin.Context) {
	board, err := h.hearings.Board(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, board)
}

// ScheduleAPI lists a hearing
func (h *Handlers) ScheduleAPI(c *gin.Context) {
	var req practice.HearingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err))
		return
	}
	hearing, err := h.hearings.Schedule(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, hearing)
}

// TodayAPI returns today's hearings
func (h *Handlers) TodayAPI(c *gin.Context) {
	now := h.now()
	today, err := h.hearings.Today(c.Request.Context(), now)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"date":    h.hearings.Day(now).Format(practice.DateLayout),
		"count":   len(today),
		"data":    today,
	})
}

// StatutesAPI lists mappings, filtered by offence name when q is given
func (h *Handlers) StatutesAPI(c *gin.Context) {
	table := h.statutes.Table(c.Request.Context())
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		ok(c, http.StatusOK, table.Search(q))
		return
	}
	ok(c, http.StatusOK, table.All())
}

// LookupIPCAPI maps an IPC section to BNS
func (h *Handlers) LookupIPCAPI(c *gin.Context) {
	h.lookupStatute(c, "IPC", (*statutes.Table).LookupIPC)
}

// LookupBNSAPI maps a BNS section back to IPC
func (h *Handlers) LookupBNSAPI(c *gin.Context) {
	h.lookupStatute(c, "BNS", (*statutes.Table).LookupBNS)
}

func (h *Handlers) lookupStatute(c *gin.Context, code string, lookup func(*statutes.Table, string) (statutes.Mapping, bool)) {
	section := c.Param("section")
	m, found := lookup(h.statutes.Table(c.Request.Context()), section)
	if !found {
		h.fail(c, fmt.Errorf("%s section %s: %w", code, section, practice.ErrNotFound))
		return
	}
	ok(c, http.StatusOK, m)
}

// ListResearchAPI returns the research log, newest first
func (h *Handlers) ListResearchAPI(c *gin.Context) {
	entries, err := h.research.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, entries)
}

// AddResearchAPI appends to the research log
func (h *Handlers) AddResearchAPI(c *gin.Context) {
	var req practice.ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err))
		return
	}
	entry, err := h.research.Add(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, entry)
}

// ListDocumentsAPI lists documents, optionally for one case
func (h *Handlers) ListDocumentsAPI(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), c.Query("case_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, docs)
}

// UploadDocumentAPI stores a multipart upload
func (h *Handlers) UploadDocumentAPI(c *gin.Context) {
	doc, err := h.upload(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, doc)
}

func (h *Handlers) upload(c *gin.Context) (*database.Document, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, badRequest(err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	return h.documents.Save(c.Request.Context(), c.PostForm("case_id"), fh.Filename, f)
}

// DownloadDocument streams a stored document back
func (h *Handlers) DownloadDocument(c *gin.Context) {
	doc, rc, err := h.documents.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", doc.ContentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	http.ServeContent(c.Writer, c.Request, doc.FileName, doc.CreatedAt, rc)
}

// LookupCNRAPI fetches case status from e-Courts
func (h *Handlers) LookupCNRAPI(c *gin.Context) {
	status, fromCache, err := h.ecourts.Lookup(c.Request.Context(), c.Param("cnr"), c.ClientIP())
	if err != nil {
		if errors.Is(err, ecourts.ErrInvalidCNR) {
			h.fail(c, err)
			return
		}
		h.logger.Error("CNR lookup failed", "cnr", c.Param("cnr"), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      status,
		"fromCache": fromCache,
	})
}

// CNRHistoryAPI returns stored statuses for a CNR
func (h *Handlers) CNRHistoryAPI(c *gin.Context) {
	history, err := h.ecourts.History(c.Request.Context(), c.Param("cnr"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, history)
}

// PendingCaptchasAPI lists CAPTCHAs waiting for a person
func (h *Handlers) PendingCaptchasAPI(c *gin.Context) {
	pending, err := h.captchas.Pending()
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, pending)
}

// GetCaptcha returns CAPTCHA image for manual solving
func (h *Handlers) GetCaptcha(c *gin.Context) {
	data, err := h.captchas.Image(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// SolveCaptcha accepts manual CAPTCHA solution
func (h *Handlers) SolveCaptcha(c *gin.Context) {
	var req struct {
		Solution string `json:"solution" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err))
		return
	}
	if err := h.captchas.Solve(c.Param("id"), req.Solution); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "CAPTCHA solution saved",
	})
}

// CacheStats returns cache statistics
func (h *Handlers) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"ecourts":      h.ecourts.CacheStats(),
			"statute_feed": h.statutes.Stats(),
		},
	})
}
