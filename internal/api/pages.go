package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JustJay7/chamber-desk/internal/billing"
	"github.com/JustJay7/chamber-desk/internal/database"
	"github.com/JustJay7/chamber-desk/internal/practice"
	"github.com/gin-gonic/gin"
)

// render fills in the layout fields every page uses
func (h *Handlers) render(c *gin.Context, status int, name string, data gin.H) {
	data["chamber"] = h.cfg.ChamberName
	data["authed"] = h.gate.Enabled()
	c.HTML(status, name, data)
}

// withError sets the page error from err and returns its status
func (h *Handlers) withError(data gin.H, err error) int {
	status := h.status(err)
	data["error"] = message(err, status)
	return status
}

// LoginPage renders the login form
func (h *Handlers) LoginPage(c *gin.Context) {
	if !h.gate.Enabled() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	h.render(c, http.StatusOK, "login.html", gin.H{"title": "Login", "chamberID": ""})
}

// Login verifies the form and sets the session cookie
func (h *Handlers) Login(c *gin.Context) {
	if !h.gate.Enabled() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	chamberID := c.PostForm("chamber_id")
	token, err := h.gate.Login(chamberID, c.PostForm("access_key"))
	if err != nil {
		h.logger.Warn("Failed login", "chamber_id", chamberID, "client_ip", c.ClientIP())
		h.render(c, http.StatusUnauthorized, "login.html", gin.H{
			"title":     "Login",
			"chamberID": chamberID,
			"error":     "Invalid chamber ID or access key",
		})
		return
	}

	h.logger.Info("Chamber login", "chamber_id", chamberID, "client_ip", c.ClientIP())
	h.gate.SetCookie(c, token)
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout clears the session cookie
func (h *Handlers) Logout(c *gin.Context) {
	h.gate.ClearCookie(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

// DashboardPage renders the chamber command view
func (h *Handlers) DashboardPage(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context(), h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "dashboard.html", gin.H{
		"title":   "Dashboard",
		"summary": summary,
	})
}

// CasesPage renders the register, intake form and conflict search
func (h *Handlers) CasesPage(c *gin.Context) {
	h.casesPage(c, practice.IntakeRequest{Court: practice.Courts[0]}, gin.H{})
}

// IntakeCase handles the intake form
func (h *Handlers) IntakeCase(c *gin.Context) {
	var req practice.IntakeRequest
	if err := c.ShouldBind(&req); err != nil {
		h.casesPage(c, req, gin.H{"err": badRequest(err)})
		return
	}

	created, err := h.cases.Intake(c.Request.Context(), req)
	if err != nil {
		h.casesPage(c, req, gin.H{"err": err})
		return
	}
	h.casesPage(c, practice.IntakeRequest{Court: req.Court}, gin.H{
		"notice": fmt.Sprintf("Case %s onboarded. No conflict found.", created.CaseID),
	})
}

func (h *Handlers) casesPage(c *gin.Context, form practice.IntakeRequest, extra gin.H) {
	ctx := c.Request.Context()
	cases, err := h.cases.List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	data := gin.H{
		"title":  "Cases",
		"courts": practice.Courts,
		"form":   form,
		"cases":  cases,
		"query":  "",
		"notice": extra["notice"],
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		hits, err := h.cases.ConflictSearch(ctx, q)
		if err != nil {
			h.fail(c, err)
			return
		}
		data["query"] = q
		data["hits"] = hits
	}

	status := http.StatusOK
	if err, _ := extra["err"].(error); err != nil {
		status = h.withError(data, err)
	}
	h.render(c, status, "cases.html", data)
}

// HearingsPage renders the board
func (h *Handlers) HearingsPage(c *gin.Context) {
	form := practice.HearingRequest{Date: h.hearings.Day(h.now()).Format(practice.DateLayout)}
	h.hearingsPage(c, form, nil, "")
}

// ScheduleHearing handles the scheduling form
func (h *Handlers) ScheduleHearing(c *gin.Context) {
	var req practice.HearingRequest
	if err := c.ShouldBind(&req); err != nil {
		h.hearingsPage(c, req, badRequest(err), "")
		return
	}
	hearing, err := h.hearings.Schedule(c.Request.Context(), req)
	if err != nil {
		h.hearingsPage(c, req, err, "")
		return
	}
	notice := fmt.Sprintf("Hearing for %s listed on %s.", hearing.CaseID, hearing.HearingDate.Format(practice.DateLayout))
	h.hearingsPage(c, practice.HearingRequest{Date: req.Date}, nil, notice)
}

func (h *Handlers) hearingsPage(c *gin.Context, form practice.HearingRequest, pageErr error, notice string) {
	ctx := c.Request.Context()
	board, err := h.hearings.Board(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	today, err := h.hearings.Today(ctx, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}

	data := gin.H{
		"title":  "Hearings",
		"form":   form,
		"board":  board,
		"today":  today,
		"notice": notice,
	}
	status := http.StatusOK
	if pageErr != nil {
		status = h.withError(data, pageErr)
	}
	h.render(c, status, "hearings.html", data)
}

// StatutesPage renders the IPC to BNS bridge
func (h *Handlers) StatutesPage(c *gin.Context) {
	table := h.statutes.Table(c.Request.Context())
	data := gin.H{
		"title": "BNS Bridge",
		"query": strings.TrimSpace(c.Query("q")),
		"ipc":   strings.TrimSpace(c.Query("ipc")),
	}

	if q := data["query"].(string); q != "" {
		data["mappings"] = table.Search(q)
	} else {
		data["mappings"] = table.All()
	}
	if ipc := data["ipc"].(string); ipc != "" {
		if m, found := table.LookupIPC(ipc); found {
			data["match"] = &m
		}
	}
	h.render(c, http.StatusOK, "statutes.html", data)
}

// BillingPage renders strategy, fee and bail tools for a brief
func (h *Handlers) BillingPage(c *gin.Context) {
	h.billingPage(c, c.Query("case_id"), gin.H{})
}

// SaveStrategy handles the strategy notes form
func (h *Handlers) SaveStrategy(c *gin.Context) {
	caseID := c.PostForm("case_id")
	if err := h.cases.SaveStrategy(c.Request.Context(), caseID, c.PostForm("notes")); err != nil {
		h.billingPage(c, caseID, gin.H{"err": err})
		return
	}
	h.billingPage(c, caseID, gin.H{"notice": "Strategy secured."})
}

// GenerateMemo handles the GST memo form
func (h *Handlers) GenerateMemo(c *gin.Context) {
	caseID := c.PostForm("case_id")
	fee, err := parseAmount(c.PostForm("fee"))
	if err != nil {
		h.billingPage(c, caseID, gin.H{"err": err})
		return
	}
	memo, err := h.cases.GenerateMemo(c.Request.Context(), caseID, fee)
	if err != nil {
		h.billingPage(c, caseID, gin.H{"err": err})
		return
	}
	h.billingPage(c, caseID, gin.H{"memo": &memo})
}

// RecordPayment handles the payment form
func (h *Handlers) RecordPayment(c *gin.Context) {
	caseID := c.PostForm("case_id")
	amount, err := parseAmount(c.PostForm("amount"))
	if err != nil {
		h.billingPage(c, caseID, gin.H{"err": err})
		return
	}
	st, err := h.cases.RecordPayment(c.Request.Context(), caseID, amount)
	if err != nil {
		h.billingPage(c, caseID, gin.H{"err": err})
		return
	}
	h.billingPage(c, caseID, gin.H{
		"notice": "Payment recorded. Outstanding " + billing.FormatINR(st.Outstanding) + ".",
	})
}

// AssessBail handles the bail calculator form
func (h *Handlers) AssessBail(c *gin.Context) {
	caseID := c.PostForm("case_id")
	var q billing.BailQuery
	if err := c.ShouldBind(&q); err != nil {
		h.billingPage(c, caseID, gin.H{"err": badRequest(err)})
		return
	}
	assessment, err := billing.AssessBail(q)
	if err != nil {
		h.billingPage(c, caseID, gin.H{"err": err})
		return
	}
	h.billingPage(c, caseID, gin.H{"bail": &assessment})
}

func (h *Handlers) billingPage(c *gin.Context, caseID string, extra gin.H) {
	ctx := c.Request.Context()
	cases, err := h.cases.List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	caseID = strings.TrimSpace(caseID)
	if caseID == "" && len(cases) > 0 {
		caseID = cases[0].CaseID
	}

	data := gin.H{
		"title":  "Billing",
		"cases":  cases,
		"caseID": caseID,
		"notice": extra["notice"],
		"memo":   extra["memo"],
		"bail":   extra["bail"],
	}
	if caseID != "" {
		var brief *database.Case
		if brief, err = h.cases.Get(ctx, caseID); err == nil {
			data["brief"] = brief
		} else if extra["err"] == nil {
			extra["err"] = err
		}
	}

	status := http.StatusOK
	if err, _ := extra["err"].(error); err != nil {
		status = h.withError(data, err)
	}
	h.render(c, status, "billing.html", data)
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !billing.Finite(v) {
		return 0, badRequest(fmt.Errorf("amount %q is not a number", s))
	}
	return v, nil
}

// ResearchPage renders the research log
func (h *Handlers) ResearchPage(c *gin.Context) {
	h.researchPage(c, practice.ResearchRequest{}, nil)
}

// AddResearch handles the research form
func (h *Handlers) AddResearch(c *gin.Context) {
	var req practice.ResearchRequest
	if err := c.ShouldBind(&req); err != nil {
		h.researchPage(c, req, badRequest(err))
		return
	}
	if _, err := h.research.Add(c.Request.Context(), req); err != nil {
		h.researchPage(c, req, err)
		return
	}
	h.researchPage(c, practice.ResearchRequest{}, nil)
}

func (h *Handlers) researchPage(c *gin.Context, form practice.ResearchRequest, pageErr error) {
	entries, err := h.research.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	data := gin.H{
		"title":   "Research",
		"form":    form,
		"entries": entries,
	}
	status := http.StatusOK
	if pageErr != nil {
		status = h.withError(data, pageErr)
	}
	h.render(c, status, "research.html", data)
}

// DocumentsPage renders uploads, optionally filtered by case
func (h *Handlers) DocumentsPage(c *gin.Context) {
	h.documentsPage(c, c.Query("case_id"), nil, "")
}

// UploadDocument handles the upload form
func (h *Handlers) UploadDocument(c *gin.Context) {
	caseID := c.PostForm("case_id")
	doc, err := h.upload(c)
	if err != nil {
		h.documentsPage(c, caseID, err, "")
		return
	}
	h.documentsPage(c, caseID, nil, fmt.Sprintf("%s stored against %s.", doc.FileName, doc.CaseID))
}

func (h *Handlers) documentsPage(c *gin.Context, caseID string, pageErr error, notice string) {
	docs, err := h.documents.List(c.Request.Context(), caseID)
	if err != nil {
		h.fail(c, err)
		return
	}
	data := gin.H{
		"title":     "Documents",
		"caseID":    strings.TrimSpace(caseID),
		"documents": docs,
		"notice":    notice,
	}
	status := http.StatusOK
	if pageErr != nil {
		status = h.withError(data, pageErr)
	}
	h.render(c, status, "documents.html", data)
}

// ECourtsPage renders the CNR lookup form and pending CAPTCHAs
func (h *Handlers) ECourtsPage(c *gin.Context) {
	h.ecourtsPage(c, c.Query("cnr"), gin.H{})
}

// LookupCNR handles the CNR form
func (h *Handlers) LookupCNR(c *gin.Context) {
	cnr := c.PostForm("cnr")
	status, fromCache, err := h.ecourts.Lookup(c.Request.Context(), cnr, c.ClientIP())
	if err != nil {
		h.ecourtsPage(c, cnr, gin.H{"err": err})
		return
	}
	h.ecourtsPage(c, cnr, gin.H{"status": status, "fromCache": fromCache})
}

// SolveCaptchaForm records a CAPTCHA answer typed into the page
func (h *Handlers) SolveCaptchaForm(c *gin.Context) {
	if err := h.captchas.Solve(c.Param("id"), c.PostForm("solution")); err != nil {
		h.ecourtsPage(c, "", gin.H{"err": err})
		return
	}
	c.Redirect(http.StatusSeeOther, "/ecourts")
}

func (h *Handlers) ecourtsPage(c *gin.Context, cnr string, extra gin.H) {
	pending, err := h.captchas.Pending()
	if err != nil {
		h.fail(c, err)
		return
	}
	data := gin.H{
		"title":     "e-Courts",
		"cnr":       strings.TrimSpace(cnr),
		"pending":   pending,
		"status":    extra["status"],
		"fromCache": extra["fromCache"],
	}
	status := http.StatusOK
	if err, _ := extra["err"].(error); err != nil {
		status = h.withError(data, err)
		if status == http.StatusInternalServerError {
			// Portal failures are upstream, not ours
			status = http.StatusBadGateway
			data["error"] = err.Error()
		}
	}
	h.render(c, status, "ecourts.html", data)
}
