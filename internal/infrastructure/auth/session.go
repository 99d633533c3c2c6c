package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/retailhub/retailhub/internal/domain/identity"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

// SessionResolver reads the access token from the Authorization header or,
// failing that, the session cookie.
type SessionResolver struct {
	jwt        *JWTService
	cookieName string
	logger     logger.Interface
}

func NewSessionResolver(jwt *JWTService, cookieName string, logger logger.Interface) *SessionResolver {
	return &SessionResolver{
		jwt:        jwt,
		cookieName: cookieName,
		logger:     logger,
	}
}

// Session returns nil, nil when the request carries no valid token.
func (r *SessionResolver) Session(c *gin.Context) (*identity.Session, error) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" && r.cookieName != "" {
		token, _ = c.Cookie(r.cookieName)
	}
	if token == "" {
		return nil, nil
	}

	claims, err := r.jwt.Verify(token)
	if err != nil {
		r.logger.Debugw("rejected access token", "error", err)
		return nil, nil
	}
	if claims.Email == "" {
		return nil, nil
	}
	return &identity.Session{Email: claims.Email}, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
