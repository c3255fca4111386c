package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pankaj-dahiya-devops/aicost/internal/engine"
	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/optimize"
	"github.com/pankaj-dahiya-devops/aicost/internal/output"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/sso"
	"github.com/pankaj-dahiya-devops/aicost/internal/session"
)

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type configureRequest struct {
	StartURL string `json:"start_url"`
	Region   string `json:"region"`
}

type configureResponse struct {
	StartURL string `json:"start_url"`
	Region   string `json:"region"`
}

func (s *Server) configure(c echo.Context) error {
	var req configureRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	req.StartURL = strings.TrimSpace(req.StartURL)
	if req.StartURL == "" {
		req.StartURL = s.opts.DefaultStartURL
	}
	if req.StartURL == "" {
		return fail(c, http.StatusBadRequest, errors.New("start_url is required"))
	}
	if req.Region == "" {
		req.Region = common.DefaultRegion
	}

	if old, err := c.Cookie(CookieName); err == nil {
		s.opts.Store.Delete(old.Value)
	}
	sess := session.New(req.StartURL, req.Region, s.now())
	s.opts.Store.Put(sess)

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return c.JSON(http.StatusOK, configureResponse{StartURL: sess.StartURL, Region: sess.Region})
}

func (s *Server) startAuth(c echo.Context) error {
	sess := current(c)
	broker, err := s.opts.Brokers(c.Request().Context(), sess.Region)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	auth, err := broker.StartLogin(c.Request().Context(), sess.StartURL)
	if err != nil {
		return fail(c, http.StatusBadGateway, fmt.Errorf("%w; check the SSO start URL and region", err))
	}

	sess.Authorization = auth
	sess.Token = nil
	sess.Accounts = nil
	sess.Selected = nil
	s.opts.Store.Put(sess)
	return c.JSON(http.StatusOK, auth)
}

type completeResponse struct {
	Authenticated bool             `json:"authenticated"`
	ExpiresAt     time.Time        `json:"expires_at"`
	Accounts      []models.Account `json:"accounts"`
}

func (s *Server) completeAuth(c echo.Context) error {
	sess := current(c)
	if sess.Authorization == nil {
		return fail(c, http.StatusConflict, errors.New("no login in progress; call /api/auth/start first"))
	}
	ctx := c.Request().Context()
	broker, err := s.opts.Brokers(ctx, sess.Region)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}

	token, err := broker.AwaitToken(ctx, sess.Authorization)
	if err != nil {
		return fail(c, loginStatus(err), err)
	}
	accounts, err := broker.ListAccounts(ctx, token)
	if err != nil {
		return fail(c, http.StatusBadGateway, err)
	}

	// The poll can take minutes; merge into the stored session so requests
	// made meanwhile are kept.
	latest, ok := s.opts.Store.Get(sess.ID)
	if !ok {
		return fail(c, http.StatusUnauthorized, errors.New("session expired or unknown"))
	}
	if latest.Authorization == nil || latest.Authorization.DeviceCode != sess.Authorization.DeviceCode {
		return fail(c, http.StatusConflict, errors.New("login was restarted; complete the new login"))
	}
	latest.Authorization = nil
	latest.Token = token
	latest.Accounts = accounts
	s.opts.Store.Put(latest)
	return c.JSON(http.StatusOK, completeResponse{Authenticated: true, ExpiresAt: token.ExpiresAt, Accounts: accounts})
}

// loginStatus maps broker login errors to HTTP status codes.
func loginStatus(err error) int {
	switch {
	case errors.Is(err, sso.ErrLoginDenied):
		return http.StatusForbidden
	case errors.Is(err, sso.ErrLoginExpired):
		return http.StatusGone
	case errors.Is(err, sso.ErrLoginTimeout):
		return http.StatusRequestTimeout
	default:
		return http.StatusBadGateway
	}
}

type statusResponse struct {
	StartURL      string    `json:"start_url"`
	Region        string    `json:"region"`
	LoginPending  bool      `json:"login_pending"`
	Authenticated bool      `json:"authenticated"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
	Accounts      int       `json:"accounts"`
	Selected      []string  `json:"selected"`
	HasReport     bool      `json:"has_report"`
}

func (s *Server) authStatus(c echo.Context) error {
	sess := current(c)
	resp := statusResponse{
		StartURL:      sess.StartURL,
		Region:        sess.Region,
		LoginPending:  sess.Authorization != nil,
		Authenticated: sess.Authenticated(s.now()),
		Accounts:      len(sess.Accounts),
		Selected:      selectedIDs(sess.Selected),
		HasReport:     sess.Report != nil,
	}
	if sess.Token != nil {
		resp.ExpiresAt = sess.Token.ExpiresAt
	}
	return c.JSON(http.StatusOK, resp)
}

var (
	errNotAuthenticated = errors.New("not authenticated; complete the SSO login first")
	errNoSelection      = errors.New("no accounts selected; call /api/accounts/select first")
	errNoReport         = errors.New("no report; call /api/costs first")
)

// checkToken returns errNotAuthenticated unless sess holds a valid token.
func (s *Server) checkToken(sess session.Session) error {
	if !sess.Authenticated(s.now()) {
		return errNotAuthenticated
	}
	return nil
}

func (s *Server) accounts(c echo.Context) error {
	sess := current(c)
	if err := s.checkToken(sess); err != nil {
		return fail(c, http.StatusUnauthorized, err)
	}
	return c.JSON(http.StatusOK, sess.Accounts)
}

type selectRequest struct {
	AccountIDs []string `json:"account_ids"`
	Role       string   `json:"role"`
}

type accountFailure struct {
	AccountID string `json:"account_id"`
	Error     string `json:"error"`
}

type selectResponse struct {
	Selected []string         `json:"selected"`
	Failures []accountFailure `json:"failures,omitempty"`
}

func (s *Server) selectAccounts(c echo.Context) error {
	sess := current(c)
	if err := s.checkToken(sess); err != nil {
		return fail(c, http.StatusUnauthorized, err)
	}
	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	accounts := sess.Accounts
	if len(req.AccountIDs) > 0 {
		accounts = sso.FilterAccounts(sess.Accounts, req.AccountIDs)
	}
	if len(accounts) == 0 {
		return fail(c, http.StatusBadRequest, errors.New("no matching accounts selected"))
	}
	role := req.Role
	if role == "" {
		role = s.opts.DefaultRole
	}

	broker, err := s.opts.Brokers(c.Request().Context(), sess.Region)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	creds, failed := broker.Credentials(c.Request().Context(), sess.Token, accounts, role)

	resp := selectResponse{}
	for _, f := range failed {
		resp.Failures = append(resp.Failures, accountFailure{AccountID: f.Account.ID, Error: f.Err.Error()})
	}
	if len(creds) == 0 {
		return c.JSON(http.StatusBadGateway, resp)
	}

	region := s.opts.Region
	if region == "" {
		region = sess.Region
	}
	sess.Selected = make([]*common.AccountSession, 0, len(creds))
	for _, cred := range creds {
		sess.Selected = append(sess.Selected, s.opts.Sessions.SessionFromCredential(cred, region))
	}
	sess.Discovery = nil
	sess.Report = nil
	s.opts.Store.Put(sess)

	resp.Selected = selectedIDs(sess.Selected)
	return c.JSON(http.StatusOK, resp)
}

// checkSelection returns errNoSelection unless accounts were selected.
func checkSelection(sess session.Session) error {
	if len(sess.Selected) == 0 {
		return errNoSelection
	}
	return nil
}

type discoverRequest struct {
	Services []string `json:"services"`
}

func (s *Server) discover(c echo.Context) error {
	sess := current(c)
	if err := checkSelection(sess); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	var req discoverRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	services, err := s.opts.Catalog.ParseServices(req.Services)
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}

	results := make([]*models.DiscoveryResult, 0, len(sess.Selected))
	for _, acct := range sess.Selected {
		d, err := s.opts.Engine.Discover(c.Request().Context(), acct, services)
		if err != nil {
			return fail(c, http.StatusInternalServerError, fmt.Errorf("account %s: %w", acct.AccountID, err))
		}
		d.AccountName = acct.AccountName
		results = append(results, d)
	}
	sess.Discovery = results
	s.opts.Store.Put(sess)
	return c.JSON(http.StatusOK, results)
}

type costsRequest struct {
	Start          string   `json:"start"`
	End            string   `json:"end"`
	Services       []string `json:"services"`
	TagAttribution bool     `json:"tag_attribution"`
}

func (s *Server) costs(c echo.Context) error {
	sess := current(c)
	if err := checkSelection(sess); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	var req costsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	period, err := models.ParsePeriod(req.Start, req.End, s.now())
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	services, err := s.opts.Catalog.ParseServices(req.Services)
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}

	report, err := s.opts.Engine.Run(c.Request().Context(), sess.Selected, engine.RunOptions{
		Period:         period,
		Services:       services,
		TagAttribution: req.TagAttribution,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	sess.Report = report
	s.opts.Store.Put(sess)
	return c.JSON(http.StatusOK, report)
}

// checkReport returns errNoReport unless a report was calculated.
func checkReport(sess session.Session) error {
	if sess.Report == nil {
		return errNoReport
	}
	return nil
}

func (s *Server) export(c echo.Context) error {
	sess := current(c)
	if err := checkReport(sess); err != nil {
		return fail(c, http.StatusNotFound, err)
	}

	stamp := output.Stamp(sess.Report.GeneratedAt)
	res := c.Response()
	switch engine.ReportFormat(c.Param("format")) {
	case engine.ReportFormatCSV:
		res.Header().Set(echo.HeaderContentType, "text/csv")
		res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=ai-costs-%s.csv", stamp))
		res.WriteHeader(http.StatusOK)
		return output.WriteCSV(res, sess.Report, output.CSVOptions{IncludeMethods: c.QueryParam("methods") == "true"})
	case engine.ReportFormatJSON:
		res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=ai-costs-%s.json", stamp))
		res.WriteHeader(http.StatusOK)
		return output.WriteJSON(res, sess.Report)
	default:
		return fail(c, http.StatusBadRequest, fmt.Errorf("unsupported export format %q; use csv or json", c.Param("format")))
	}
}

func (s *Server) optimize(c echo.Context) error {
	sess := current(c)
	if err := checkReport(sess); err != nil {
		return fail(c, http.StatusNotFound, err)
	}
	return c.JSON(http.StatusOK, optimize.Build(sess.Report))
}

func selectedIDs(sessions []*common.AccountSession) []string {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.AccountID)
	}
	return ids
}
