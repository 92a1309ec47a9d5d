package issuer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/internal/authn/bearer"
	"github.com/fanout-labs/gqlgate/pkg/authcontext"
	serverErrors "github.com/fanout-labs/gqlgate/pkg/server/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type LoginRequest struct {
	TenantID string `json:"tenantId" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CurrentUser describes the principal of the request for GET /auth/me.
type CurrentUser struct {
	Scheme      string   `json:"scheme"`
	Tenant      string   `json:"tenant,omitempty"`
	Username    string   `json:"username"`
	Scopes      []string `json:"scopes"`
	Authorities []string `json:"authorities"`
}

// TokenHandler serves POST /auth/token.
func (i *Issuer) TokenHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			serverErrors.WriteError(w, r, serverErrors.NewEncodedError(http.StatusMethodNotAllowed, serverErrors.CodeBadRequest, "Method Not Allowed"))
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			serverErrors.WriteError(w, r, serverErrors.BadRequest(err.Error()))
			return
		}
		if err := validate.Struct(req); err != nil {
			serverErrors.WriteError(w, r, serverErrors.BadRequest("tenantId, username and password are required"))
			return
		}

		token, err := i.Issue(r.Context(), req.TenantID, req.Username, req.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				i.logger.DebugWithContext(r.Context(), "login failed",
					zap.String("tenant_id", req.TenantID),
					zap.String("username", req.Username))
				serverErrors.WriteError(w, r, serverErrors.InvalidCredential)
				return
			}
			i.logger.ErrorWithContext(r.Context(), "token issuing failed", zap.Error(err))
			serverErrors.WriteError(w, r, serverErrors.HandleError("", err))
			return
		}

		writeJSON(w, token)
	})
}

// MeHandler serves GET /auth/me. It expects the authentication middleware to have run.
func MeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := authcontext.PrincipalFromContext(r.Context())
		if !ok {
			serverErrors.WriteError(w, r, serverErrors.Unauthenticated)
			return
		}

		me := CurrentUser{
			Scheme:      string(p.Scheme),
			Username:    p.ID,
			Scopes:      []string{},
			Authorities: p.SortedAuthorities(),
		}
		if p.Scheme == authcontext.SchemeJWT {
			if tenant, ok := p.Claims["tenant"].(string); ok {
				me.Tenant = tenant
			}
			if scopes := bearer.ExtractScopes(p.Claims); scopes != nil {
				me.Scopes = scopes
			}
		}

		writeJSON(w, me)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(v)
}
