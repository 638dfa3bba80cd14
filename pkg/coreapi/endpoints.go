package coreapi

import (
	"context"
	"errors"
	"fmt"
)

// Login checks credentials against CoreAPI. A 400 or 404 means the
// credentials were rejected, not that the call failed.
func (c *Client) Login(ctx context.Context, username, password string) (*User, bool, error) {
	body := map[string]string{"username": username, "password": password}
	var u User
	_, err := c.Post(ctx, "/users/login", body, &u)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &u, true, nil
}

// UserByEmail looks a user up via the search DSL, including subscriptions.
// Returns nil when no account exists for the address.
func (c *Client) UserByEmail(ctx context.Context, email string) (*User, error) {
	q := RawQuery(Search(Param{Field: "email", Value: email}), With("subscriptions"))
	var list []User
	_, err := c.Get(ctx, "/users?"+q, &list)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == 404 {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	var u User
	if _, err := c.Post(ctx, "/users", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) PatchUser(ctx context.Context, id int, req PatchUserRequest) (*User, error) {
	var u User
	if _, err := c.Patch(ctx, fmt.Sprintf("/users/%d", id), req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateSubscription uses the admin-create endpoint; the response embeds
// the owning user record.
func (c *Client) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*Subscription, error) {
	var s Subscription
	if _, err := c.Post(ctx, "/subscriptions/admin", req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) CreateDomain(ctx context.Context, req CreateDomainRequest) (*Domain, error) {
	var d Domain
	if _, err := c.Post(ctx, "/domain_confs", req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) CreateOrigin(ctx context.Context, req CreateOriginRequest) (*Origin, error) {
	var o Origin
	if _, err := c.Post(ctx, "/origin_confs", req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) CreateDemoRun(ctx context.Context, req CreateDemoRunRequest) (*DemoRun, error) {
	var d DemoRun
	if _, err := c.Post(ctx, "/demo_runs", req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) CreateLeadGen(ctx context.Context, req CreateLeadGenRequest) (*LeadGenReferrer, error) {
	var l LeadGenReferrer
	if _, err := c.Post(ctx, "/lead_gen_referrers", req, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	_, err := c.Post(ctx, "/users/password_reset", map[string]string{"email": email}, nil)
	return err
}

func (c *Client) SendWelcomeEmail(ctx context.Context, email string) error {
	_, err := c.Post(ctx, "/users/welcome_email", map[string]string{"email": email}, nil)
	return err
}

// AWSRegions lists deployable regions; callers filter on the Deploy flag.
func (c *Client) AWSRegions(ctx context.Context) ([]Region, error) {
	var list []Region
	if _, err := c.Get(ctx, "/aws_regions", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) CreateDNSRecord(ctx context.Context, req CreateDNSRecordRequest) (*DNSRecord, error) {
	var r DNSRecord
	if _, err := c.Post(ctx, "/dns_records", req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CountryByISO resolves a country record from its ISO code. Returns nil
// when the code is unknown.
func (c *Client) CountryByISO(ctx context.Context, iso string) (*Country, error) {
	q := RawQuery(Search(Param{Field: "iso", Value: iso}))
	var list []Country
	_, err := c.Get(ctx, "/countries?"+q, &list)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == 404 {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}
