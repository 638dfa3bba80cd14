// internal/provisioning/pipeline.go
package provisioning

import (
	"context"
	"crypto/rand"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"signupgw/pkg/audit"
	"signupgw/pkg/coreapi"
	"signupgw/pkg/metrics"
	"signupgw/pkg/problems"
)

// Subscription defaults for the signup flow.
const (
	subscriptionType = "imgeng"
	basicPlanID      = 1
	trialPaymentType = "trial"
)

const cnameLabelLen = 8
const cnameLabelChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// State tracks pipeline progress. Each state is reached only after the
// corresponding remote resource exists.
type State string

const (
	StateStart               State = "start"
	StateSubscriptionCreated State = "subscription_created"
	StateDomainCreated       State = "domain_created"
	StateOriginCreated       State = "origin_created"
	StateDemoRunCreated      State = "demo_run_created"
	StateComplete            State = "complete"
	StateFailed              State = "failed"
)

// Step names the remote call a failure happened in.
type Step string

const (
	StepSubscription  Step = "subscription"
	StepDomain        Step = "domain"
	StepOrigin        Step = "origin"
	StepDemoRun       Step = "demo_run"
	StepLeadGen       Step = "lead_gen"
	StepPasswordReset Step = "password_reset"
	StepRegions       Step = "regions"
	StepDNS           Step = "dns"
	StepWelcomeEmail  Step = "welcome_email"
)

// StepError is the terminal error of a failed run. Earlier steps' remote
// resources are NOT rolled back; the partial Result says how far we got.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return "provisioning: step " + string(e.Step) + ": " + e.Err.Error()
}
func (e *StepError) Unwrap() error { return e.Err }

// Request is one validated provisioning job for an authenticated user.
type Request struct {
	AccountName  string
	OriginURL    string
	DemoID       string
	CampaignName string
	QueryString  string
	UserID       int
	Email        string

	// Set by the account layer: drives the conditional password-reset mail.
	SSOSignup         bool
	FirstRegistration bool
}

// Validate enforces the preconditions the pipeline assumes.
func (r Request) Validate() error {
	if strings.TrimSpace(r.AccountName) == "" {
		return &problems.ValidationError{Field: "account_name", Reason: "required"}
	}
	if strings.TrimSpace(r.OriginURL) == "" {
		return &problems.ValidationError{Field: "origin", Reason: "required"}
	}
	u, err := url.Parse(r.OriginURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &problems.ValidationError{Field: "origin", Reason: "must be an absolute URL"}
	}
	if r.UserID == 0 {
		return &problems.ValidationError{Field: "user_id", Reason: "required"}
	}
	return nil
}

// Result bundles every step's outcome. On failure the populated fields
// reflect the resources that were created before the failing step.
type Result struct {
	State      State `json:"state"`
	FailedStep Step  `json:"failed_step,omitempty"`

	User         *coreapi.User            `json:"user,omitempty"`
	Subscription *coreapi.Subscription    `json:"subscription,omitempty"`
	Domain       *coreapi.Domain          `json:"domain,omitempty"`
	Origin       *coreapi.Origin          `json:"origin,omitempty"`
	Demo         *coreapi.DemoRun         `json:"demo,omitempty"`
	LeadGen      *coreapi.LeadGenReferrer `json:"lead_gen,omitempty"`
	DNS          []coreapi.DNSRecord      `json:"dns,omitempty"`
}

// Pipeline turns one Request into a configured account + CDN endpoint via
// a strictly ordered chain of CoreAPI calls.
type Pipeline struct {
	log         *zap.SugaredLogger
	api         *coreapi.Client
	rec         *audit.Recorder
	cnameSuffix string
}

func New(api *coreapi.Client, rec *audit.Recorder, cnameSuffix string, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{log: log, api: api, rec: rec, cnameSuffix: cnameSuffix}
}

// Run executes the chain Subscription → Domain → Origin → DemoRun →
// [LeadGen] → [PasswordReset] → Regions → DNS → WelcomeEmail. Steps are
// sequential and blocking; the first error aborts the remainder and is
// returned as *StepError alongside the partial Result.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res := &Result{State: StateStart}
	fail := func(step Step, err error) (*Result, error) {
		res.State = StateFailed
		res.FailedStep = step
		metrics.ProvisioningRuns.WithLabelValues("failed").Inc()
		metrics.ProvisioningStepFailures.WithLabelValues(string(step)).Inc()
		p.rec.Record(ctx, audit.Event{
			Kind: "provision_failed", Email: req.Email, UserID: req.UserID,
			Detail: map[string]any{"step": string(step), "error": err.Error()},
		})
		p.log.Errorw("provisioning failed", "step", step, "user_id", req.UserID, "err", err)
		return res, &StepError{Step: step, Err: err}
	}

	sub, err := p.api.CreateSubscription(ctx, coreapi.CreateSubscriptionRequest{
		Type:        subscriptionType,
		PlanID:      basicPlanID,
		PaymentType: trialPaymentType,
		UserID:      req.UserID,
	})
	if err != nil {
		return fail(StepSubscription, err)
	}
	res.Subscription = sub
	res.User = sub.User
	res.State = StateSubscriptionCreated

	originURL := strings.TrimRight(req.OriginURL, "/")
	parsed, _ := url.Parse(req.OriginURL)
	cname := randomLabel(cnameLabelLen) + p.cnameSuffix

	dom, err := p.api.CreateDomain(ctx, coreapi.CreateDomainRequest{
		URL:            originURL,
		URLType:        parsed.Scheme,
		CName:          cname,
		SubscriptionID: sub.ID,
	})
	if err != nil {
		return fail(StepDomain, err)
	}
	res.Domain = dom
	res.State = StateDomainCreated

	org, err := p.api.CreateOrigin(ctx, coreapi.CreateOriginRequest{
		URL:            originURL,
		URLType:        parsed.Scheme,
		SubscriptionID: sub.ID,
		OriginConfID:   dom.ID,
	})
	if err != nil {
		return fail(StepOrigin, err)
	}
	res.Origin = org
	res.State = StateOriginCreated

	demo, err := p.api.CreateDemoRun(ctx, coreapi.CreateDemoRunRequest{
		SubscriptionID: sub.ID,
		DemoID:         req.DemoID,
		Origin:         req.OriginURL,
	})
	if err != nil {
		return fail(StepDemoRun, err)
	}
	res.Demo = demo
	res.State = StateDemoRunCreated

	if req.QueryString != "" {
		lead, err := p.api.CreateLeadGen(ctx, coreapi.CreateLeadGenRequest{
			SubscriptionID: sub.ID,
			CampaignName:   req.CampaignName,
			QueryString:    req.QueryString,
		})
		if err != nil {
			return fail(StepLeadGen, err)
		}
		res.LeadGen = lead
	}

	// An SSO-created account has no password yet; the reset mail lets the
	// user obtain one for non-SSO login later. Only on first registration.
	if req.SSOSignup && req.FirstRegistration {
		if err := p.api.SendPasswordReset(ctx, req.Email); err != nil {
			return fail(StepPasswordReset, err)
		}
	}

	regions, err := p.api.AWSRegions(ctx)
	if err != nil {
		return fail(StepRegions, err)
	}
	for _, region := range regions {
		if region.Deploy != "ALL" {
			continue
		}
		rec, err := p.api.CreateDNSRecord(ctx, coreapi.CreateDNSRecordRequest{
			Type:     "A",
			Name:     dom.CName,
			RegionID: region.ID,
		})
		if err != nil {
			return fail(StepDNS, err)
		}
		res.DNS = append(res.DNS, *rec)
	}

	if err := p.api.SendWelcomeEmail(ctx, req.Email); err != nil {
		return fail(StepWelcomeEmail, err)
	}

	res.State = StateComplete
	metrics.ProvisioningRuns.WithLabelValues("complete").Inc()
	p.rec.Record(ctx, audit.Event{
		Kind: "provision_complete", Email: req.Email, UserID: req.UserID,
		Detail: map[string]any{"subscription_id": sub.ID, "domain_id": dom.ID, "cname": dom.CName},
	})
	p.log.Infow("provisioning complete", "user_id", req.UserID, "subscription_id", sub.ID, "cname", dom.CName)
	return res, nil
}

// randomLabel draws n lowercase-alphanumeric characters. Uniqueness is
// probabilistic; collisions are accepted rather than checked.
func randomLabel(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = cnameLabelChars[int(b[i])%len(cnameLabelChars)]
	}
	return string(b)
}
