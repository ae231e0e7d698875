package auth

import (
	"github.com/Alcereo/inventory-gateway/pkg/common"
	log "github.com/sirupsen/logrus"
	"net/http"
)

// userIdentityFilter replaces the client-supplied identity header with the
// user id carried by the verified token.
type userIdentityFilter struct {
	next           *common.RequestHandler
	Name           string   `validate:"required"`
	Verifier       Verifier `validate:"required"`
	UserDataHeader string   `validate:"required"`
}

func NewUserIdentityFilter(name string, verifier Verifier, userDataHeader string) *userIdentityFilter {
	if userDataHeader == "" {
		userDataHeader = common.UserIdHeader
	}
	filter := &userIdentityFilter{
		Name:           name,
		Verifier:       verifier,
		UserDataHeader: userDataHeader,
	}
	if err := validate.Struct(filter); err != nil {
		panic(err.Error())
	}
	return filter
}

func (filter *userIdentityFilter) SetNext(handler common.RequestHandler) {
	filter.next = &handler
}

func (filter *userIdentityFilter) Handle(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("filterName", filter.Name)
	filter.updateRequest(log, request)
	if filter.next != nil {
		(*filter.next).Handle(log, writer, request)
	} else {
		log.Debugf("User identity filter: %v doesn't have next handler", filter.Name)
	}
}

func (filter *userIdentityFilter) updateRequest(log *log.Entry, request *http.Request) {
	claimed := request.Header.Get(filter.UserDataHeader)
	request.Header.Del(filter.UserDataHeader)

	token, found := BearerToken(request.Header.Get(common.AuthorizationHeader))
	if !found {
		log.Debugf("Bearer token not found. Identity header dropped.")
		return
	}
	claims, err := filter.Verifier.Verify(token)
	if err != nil {
		log.Warnf("Token verification error. Identity header dropped. Reason: %v", err)
		return
	}
	if claims.UserId == "" {
		log.Debugf("Token carries no user id. Identity header dropped.")
		return
	}
	if claimed != "" && claimed != claims.UserId {
		log.Warnf("Identity header %q replaced by token subject %q", claimed, claims.UserId)
	}
	request.Header.Set(filter.UserDataHeader, claims.UserId)
}
