package authz

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/distribution-auth/ruleauth/auth"
)

// InstrumentedAuthorizer records authorization decisions of an auth.Authorizer.
type InstrumentedAuthorizer struct {
	authorizer auth.Authorizer

	requests        *prometheus.CounterVec
	requestedScopes prometheus.Counter
	grantedScopes   prometheus.Counter
}

// NewInstrumentedAuthorizer returns a new InstrumentedAuthorizer registering its metrics in reg.
func NewInstrumentedAuthorizer(authorizer auth.Authorizer, reg prometheus.Registerer) InstrumentedAuthorizer {
	factory := promauto.With(reg)

	return InstrumentedAuthorizer{
		authorizer: authorizer,

		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ruleauth_authorization_requests_total",
			Help: "Number of authorization requests, partitioned by result.",
		}, []string{"result"}),
		requestedScopes: factory.NewCounter(prometheus.CounterOpts{
			Name: "ruleauth_requested_scopes_total",
			Help: "Number of scopes requested by clients.",
		}),
		grantedScopes: factory.NewCounter(prometheus.CounterOpts{
			Name: "ruleauth_granted_scopes_total",
			Help: "Number of scopes granted to clients.",
		}),
	}
}

// Authorize implements auth.Authorizer.
func (a InstrumentedAuthorizer) Authorize(ctx context.Context, subject auth.Subject, requestedScopes []auth.Scope) ([]auth.Scope, error) {
	a.requestedScopes.Add(float64(len(requestedScopes)))

	grantedScopes, err := a.authorizer.Authorize(ctx, subject, requestedScopes)
	if err != nil {
		a.requests.WithLabelValues("error").Inc()

		return nil, err
	}

	result := "granted"
	if len(grantedScopes) < len(requestedScopes) {
		result = "partial"
	}

	a.requests.WithLabelValues(result).Inc()
	a.grantedScopes.Add(float64(len(grantedScopes)))

	return grantedScopes, nil
}
