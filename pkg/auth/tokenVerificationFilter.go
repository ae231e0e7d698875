package auth

import (
	"github.com/Alcereo/inventory-gateway/pkg/common"
	log "github.com/sirupsen/logrus"
	"gopkg.in/go-playground/validator.v9"
	"net/http"
	"strings"
)

const (
	TokenRequiredMessage = "Authentication token is required."
	TokenInvalidMessage  = "Invalid or expired token."
)

var validate = validator.New()

type Verifier interface {
	Verify(token string) (*Claims, error)
}

type tokenVerificationFilter struct {
	next            *common.RequestHandler
	Name            string   `validate:"required"`
	Verifier        Verifier `validate:"required"`
	ProtectedPrefix string   `validate:"required"`
	publicPaths     map[string]bool
}

func NewTokenVerificationFilter(
	name string,
	verifier Verifier,
	protectedPrefix string,
	publicPaths []string,
) *tokenVerificationFilter {
	paths := make(map[string]bool)
	for _, path := range publicPaths {
		paths[path] = true
	}
	filter := &tokenVerificationFilter{
		Name:            name,
		Verifier:        verifier,
		ProtectedPrefix: protectedPrefix,
		publicPaths:     paths,
	}
	if err := validate.Struct(filter); err != nil {
		panic(err.Error())
	}
	return filter
}

func (filter *tokenVerificationFilter) SetNext(handler common.RequestHandler) {
	filter.next = &handler
}

func (filter *tokenVerificationFilter) Handle(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
	const stage = "Token verification rejected request. Reason: %v"
	log = log.WithField("filterName", filter.Name)

	if filter.requiresToken(request.URL.Path) {
		token, found := BearerToken(request.Header.Get(common.AuthorizationHeader))
		if !found {
			log.Debugf(stage, "bearer token not found")
			common.WriteMessage(log, writer, http.StatusUnauthorized, TokenRequiredMessage)
			return
		}
		if _, err := filter.Verifier.Verify(token); err != nil {
			log.Warnf(stage, err)
			common.WriteMessage(log, writer, http.StatusUnauthorized, TokenInvalidMessage)
			return
		}
	}

	if filter.next != nil {
		(*filter.next).Handle(log, writer, request)
	} else {
		log.Debugf("Token verification filter: %v doesn't have next handler", filter.Name)
	}
}

func (filter *tokenVerificationFilter) requiresToken(path string) bool {
	if filter.publicPaths[path] {
		return false
	}
	return strings.HasPrefix(path, filter.ProtectedPrefix)
}

// BearerToken extracts the credential of a "Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
