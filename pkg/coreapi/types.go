package coreapi

// Remote-owned entities. CoreAPI assigns every id.

type User struct {
	ID            int            `json:"id"`
	Username      string         `json:"username"`
	Email         string         `json:"email"`
	FirstName     string         `json:"first_name,omitempty"`
	LastName      string         `json:"last_name,omitempty"`
	CountryID     int            `json:"country_id,omitempty"`
	Subscriptions []Subscription `json:"subscriptions,omitempty"`
}

type Subscription struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	PlanID      int    `json:"plan_id"`
	PaymentType string `json:"payment_type"`
	UserID      int    `json:"user_id"`
	User        *User  `json:"user,omitempty"`
}

// Domain is a domain configuration. Its id doubles as the origin_conf_id
// reference an Origin carries; that asymmetry is how the upstream API is
// shaped, not a naming mistake.
type Domain struct {
	ID             int    `json:"id"`
	URL            string `json:"url"`
	URLType        string `json:"url_type"`
	CName          string `json:"cname"`
	SubscriptionID int    `json:"subscription_id"`
}

type Origin struct {
	ID             int    `json:"id"`
	URL            string `json:"url"`
	URLType        string `json:"url_type"`
	SubscriptionID int    `json:"subscription_id"`
	OriginConfID   int    `json:"origin_conf_id"`
}

type DemoRun struct {
	ID             int    `json:"id"`
	SubscriptionID int    `json:"subscription_id"`
	DemoID         string `json:"demo_id"`
	Origin         string `json:"origin"`
}

type LeadGenReferrer struct {
	ID             int    `json:"id"`
	SubscriptionID int    `json:"subscription_id"`
	CampaignName   string `json:"campaign_name"`
	QueryString    string `json:"query_string"`
}

type Region struct {
	ID     int    `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Deploy string `json:"deploy"`
}

type DNSRecord struct {
	ID       int    `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	RegionID int    `json:"region_id"`
}

type Country struct {
	ID   int    `json:"id"`
	ISO  string `json:"iso"`
	Name string `json:"name"`
}

// Request payloads, one per endpoint.

type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	CountryID int    `json:"country_id,omitempty"`
}

type PatchUserRequest struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	CountryID int    `json:"country_id,omitempty"`
}

type CreateSubscriptionRequest struct {
	Type        string `json:"type"`
	PlanID      int    `json:"plan_id"`
	PaymentType string `json:"payment_type"`
	UserID      int    `json:"user_id"`
}

type CreateDomainRequest struct {
	URL            string `json:"url"`
	URLType        string `json:"url_type"`
	CName          string `json:"cname"`
	SubscriptionID int    `json:"subscription_id"`
}

type CreateOriginRequest struct {
	URL            string `json:"url"`
	URLType        string `json:"url_type"`
	SubscriptionID int    `json:"subscription_id"`
	OriginConfID   int    `json:"origin_conf_id"`
}

type CreateDemoRunRequest struct {
	SubscriptionID int    `json:"subscription_id"`
	DemoID         string `json:"demo_id"`
	Origin         string `json:"origin"`
}

type CreateLeadGenRequest struct {
	SubscriptionID int    `json:"subscription_id"`
	CampaignName   string `json:"campaign_name"`
	QueryString    string `json:"query_string"`
}

type CreateDNSRecordRequest struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	RegionID int    `json:"region_id"`
}
