package domain

import (
	"net/url"
	"strings"
	"time"
)

// SNSEndpointPrefix marks subscriptions delivered through AWS SNS platform endpoints.
const SNSEndpointPrefix = "arn:aws:sns:"

// PushSubscription is one registered device. Endpoint is unique.
type PushSubscription struct {
	Endpoint  string    `json:"endpoint" db:"endpoint"`
	P256dh    string    `json:"p256dh" db:"p256dh"`
	Auth      string    `json:"auth" db:"auth"`
	UserID    string    `json:"user_id" db:"user_id"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsSNS reports whether the endpoint is an SNS platform endpoint ARN.
func (s PushSubscription) IsSNS() bool { return strings.HasPrefix(s.Endpoint, SNSEndpointPrefix) }

func (s PushSubscription) Validate() error {
	var p problems
	p.add(s.UserID == "", "user_id is required")
	if s.IsSNS() {
		return p.err()
	}
	u, err := url.Parse(s.Endpoint)
	p.add(err != nil || u.Scheme != "https" || u.Host == "", "endpoint must be an https URL or an SNS endpoint ARN")
	p.add(s.P256dh == "", "keys.p256dh is required")
	p.add(s.Auth == "", "keys.auth is required")
	return p.err()
}

// Scope selects which subscriptions a fan-out reaches. Empty UserID means everyone.
type Scope struct {
	UserID string
}

// Target is the history label for the scope.
func (s Scope) Target() string {
	if s.UserID == "" {
		return TargetAll
	}
	return s.UserID
}
