package session

import (
	"context"
	"encoding/json"
	"github.com/Alcereo/inventory-gateway/pkg/client"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/Alcereo/inventory-gateway/pkg/storage"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"net/http"
	"sync"
)

const (
	TokenKey = "token"
	UserKey  = "user"

	LoginFailed        = "Login failed."
	RegistrationFailed = "Registration failed."
	NetworkError       = "Network error."
	NoSession          = "No session"
	SessionExpired     = "Session expired"
	SessionCheckFailed = "Session check failed."
)

type AuthAPI interface {
	Login(ctx context.Context, email string, password string) (*client.Response, error)
	Register(ctx context.Context, email string, password string) (*client.Response, error)
	ListItems(ctx context.Context, credentials client.Credentials) (*client.Response, error)
}

// Snapshot is a copy of the session state at one moment.
type Snapshot struct {
	Token       string
	Identity    *common.Identity
	Loading     bool
	Error       string
	FieldErrors map[string][]string
}

func (snapshot Snapshot) Authenticated() bool {
	return snapshot.Token != "" && snapshot.Identity != nil
}

// Store owns the client's authentication state and mirrors it to storage.
// Operations never return errors; the outcome is read from Snapshot.
// Concurrent operations are not serialized against each other: the last one to finish wins.
type Store struct {
	mu       sync.Mutex
	api      AuthAPI
	storage  storage.Storage
	log      *logrus.Entry
	token    string
	identity *common.Identity
	loading  bool
	err      string
	fields   map[string][]string
}

func NewStore(api AuthAPI, storage storage.Storage, log *logrus.Entry) *Store {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	store := &Store{
		api:     api,
		storage: storage,
		log:     log.WithField("component", "session"),
	}
	store.rehydrate()
	return store
}

func (store *Store) Snapshot() Snapshot {
	store.mu.Lock()
	defer store.mu.Unlock()
	var identity *common.Identity
	if store.identity != nil {
		copied := *store.identity
		identity = &copied
	}
	var fields map[string][]string
	if len(store.fields) > 0 {
		fields = make(map[string][]string, len(store.fields))
		for field, messages := range store.fields {
			fields[field] = append([]string(nil), messages...)
		}
	}
	return Snapshot{
		Token:       store.token,
		Identity:    identity,
		Loading:     store.loading,
		Error:       store.err,
		FieldErrors: fields,
	}
}

// Credentials returns what protected calls need, or false without a session.
func (store *Store) Credentials() (client.Credentials, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.token == "" || store.identity == nil {
		return client.Credentials{}, false
	}
	return client.Credentials{Token: store.token, UserId: store.identity.Id}, true
}

func (store *Store) Login(ctx context.Context, email string, password string) {
	store.begin()
	defer store.finish()

	response, err := store.api.Login(ctx, email, password)
	if err != nil {
		store.log.Warnf("Login request failed. Reason: %v", err)
		store.fail(NetworkError, nil)
		return
	}
	token := response.Get("token")
	if response.Ok() && token.Type == gjson.String && token.Str != "" {
		store.authenticate(token.Str, identityFrom(response, email))
		return
	}
	store.fail(response.MessageOr(LoginFailed), response.FieldErrors())
}

// Register creates the account and signs in with the same credentials.
func (store *Store) Register(ctx context.Context, email string, password string) {
	store.begin()
	defer store.finish()

	response, err := store.api.Register(ctx, email, password)
	if err != nil {
		store.log.Warnf("Register request failed. Reason: %v", err)
		store.fail(NetworkError, nil)
		return
	}
	if response.Status == http.StatusCreated && response.Get("email").String() != "" {
		store.Login(ctx, email, password)
		return
	}
	store.fail(response.MessageOr(RegistrationFailed), response.FieldErrors())
}

func (store *Store) Logout() {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.token = ""
	store.identity = nil
	store.err = ""
	store.fields = nil
	store.loading = false
	store.persistLocked()
}

// Expire ends the session because the server no longer accepts it.
func (store *Store) Expire(reason string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.token = ""
	store.identity = nil
	store.loading = false
	store.err = reason
	store.fields = nil
	store.persistLocked()
}

// CheckSession probes a protected route with the current credentials.
func (store *Store) CheckSession(ctx context.Context) {
	credentials, found := store.Credentials()
	if !found {
		store.setError(NoSession)
		return
	}
	store.begin()
	defer store.finish()

	response, err := store.api.ListItems(ctx, credentials)
	if err != nil {
		store.log.Warnf("Session check failed. Reason: %v", err)
		store.setError(SessionCheckFailed)
		return
	}
	if response.Status == http.StatusUnauthorized {
		store.Expire(SessionExpired)
	}
}

// Close releases the store. State already lives in storage.
func (store *Store) Close() {
	store.log.Debugf("Session store closed")
}

func (store *Store) begin() {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.loading = true
	store.err = ""
	store.fields = nil
}

func (store *Store) finish() {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.loading = false
}

func (store *Store) setError(message string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.err = message
}

func (store *Store) authenticate(token string, identity *common.Identity) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.token = token
	store.identity = identity
	store.err = ""
	store.persistLocked()
}

func (store *Store) fail(message string, fields map[string][]string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.token = ""
	store.identity = nil
	store.err = message
	store.fields = fields
	store.persistLocked()
}

// persistLocked writes both keys or neither.
func (store *Store) persistLocked() {
	if store.token != "" && store.identity != nil {
		user, err := json.Marshal(store.identity)
		if err != nil {
			store.log.Errorf("Serializing identity error. Reason: %v", err)
			return
		}
		err = store.storage.Set(TokenKey, store.token)
		if err == nil {
			err = store.storage.Set(UserKey, string(user))
		}
		if err == nil {
			return
		}
		store.log.Errorf("Persisting session error. Reason: %v", err)
	}
	if err := store.storage.Remove(TokenKey, UserKey); err != nil {
		store.log.Errorf("Erasing session error. Reason: %v", err)
	}
}

func (store *Store) rehydrate() {
	store.mu.Lock()
	defer store.mu.Unlock()

	token, tokenFound, tokenErr := store.storage.Get(TokenKey)
	user, userFound, userErr := store.storage.Get(UserKey)
	if tokenErr != nil || userErr != nil {
		store.log.Warnf("Reading persisted session error. Token: %v. User: %v", tokenErr, userErr)
	}

	if tokenFound && userFound && token != "" {
		var identity common.Identity
		if err := json.Unmarshal([]byte(user), &identity); err == nil && identity.Id != "" {
			store.token = token
			store.identity = &identity
			store.log.Debugf("Session restored for %v", identity.Email)
			return
		}
		store.log.Warnf("Persisted identity is unreadable. Session erased.")
	}
	if tokenFound || userFound {
		store.persistLocked()
	}
}

// identityFrom reads user.id, falling back to user.email and then the login email.
func identityFrom(response *client.Response, email string) *common.Identity {
	user := response.Get("user")
	identity := &common.Identity{
		Id:    user.Get("id").String(),
		Email: user.Get("email").String(),
	}
	if identity.Email == "" {
		identity.Email = email
	}
	if identity.Id == "" {
		identity.Id = identity.Email
	}
	return identity
}
