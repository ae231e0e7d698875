package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"github.com/Alcereo/inventory-gateway/pkg/auth"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/Alcereo/inventory-gateway/pkg/serializers"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
	"net/http"
	"strings"
	"sync"
	"time"
)

type account struct {
	identity     common.Identity
	passwordHash string
}

type stubApi struct {
	mu       sync.Mutex
	mux      *http.ServeMux
	verifier *auth.TokenVerifier
	issuer   interface {
		Issue(identity common.Identity) (string, error)
	}
	accounts map[string]*account
	items    map[string]*common.Item
	sales    []ownedSale
}

type ownedSale struct {
	userId string
	sale   common.Sale
}

func newStubApi(secret string, ttl time.Duration) *stubApi {
	api := &stubApi{
		mux:      http.NewServeMux(),
		verifier: auth.NewTokenVerifier(secret, nil),
		issuer:   serializers.NewJwtTokenIssuer(secret, ttl),
		accounts: make(map[string]*account),
		items:    make(map[string]*common.Item),
	}
	api.mux.HandleFunc("/api/auth/register", api.register)
	api.mux.HandleFunc("/api/auth/login", api.login)
	api.mux.HandleFunc("/api/items", api.authenticated(api.itemCollection))
	api.mux.HandleFunc("/api/items/", api.authenticated(api.deleteItem))
	api.mux.HandleFunc("/api/sales", api.authenticated(api.saleCollection))
	return api
}

func (api *stubApi) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	log.Debugf("Stub API: %s %s", request.Method, request.URL.Path)
	api.mux.ServeHTTP(writer, request)
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func reply(writer http.ResponseWriter, status int, body interface{}) {
	writer.Header().Set(common.ContentTypeHeader, common.JsonContentType)
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(body)
}

func message(text string) common.Message {
	return common.Message{Message: text}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (api *stubApi) register(writer http.ResponseWriter, request *http.Request) {
	var body credentials
	if request.Method != http.MethodPost || json.NewDecoder(request.Body).Decode(&body) != nil {
		reply(writer, http.StatusBadRequest, message("Invalid request."))
		return
	}
	if body.Email == "" || body.Password == "" {
		reply(writer, http.StatusBadRequest, message("Email and password are required."))
		return
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	email := strings.ToLower(body.Email)
	if _, exists := api.accounts[email]; exists {
		reply(writer, http.StatusConflict, message("User already exists."))
		return
	}
	created := &account{
		identity:     common.Identity{Id: uuid.NewV4().String(), Email: email},
		passwordHash: hashPassword(body.Password),
	}
	api.accounts[email] = created
	reply(writer, http.StatusCreated, created.identity)
}

func (api *stubApi) login(writer http.ResponseWriter, request *http.Request) {
	var body credentials
	if request.Method != http.MethodPost || json.NewDecoder(request.Body).Decode(&body) != nil {
		reply(writer, http.StatusBadRequest, message("Invalid request."))
		return
	}

	api.mu.Lock()
	found, exists := api.accounts[strings.ToLower(body.Email)]
	api.mu.Unlock()
	if !exists || found.passwordHash != hashPassword(body.Password) {
		reply(writer, http.StatusUnauthorized, message("Invalid email or password."))
		return
	}

	token, err := api.issuer.Issue(found.identity)
	if err != nil {
		log.Errorf("Issuing token error: %v", err)
		reply(writer, http.StatusInternalServerError, message("Login failed."))
		return
	}
	reply(writer, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  found.identity,
	})
}

type authenticatedHandler func(writer http.ResponseWriter, request *http.Request, userId string)

func (api *stubApi) authenticated(next authenticatedHandler) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		token, found := auth.BearerToken(request.Header.Get(common.AuthorizationHeader))
		if !found {
			reply(writer, http.StatusUnauthorized, message("Missing token."))
			return
		}
		claims, err := api.verifier.Verify(token)
		if err != nil {
			reply(writer, http.StatusUnauthorized, message("Invalid or expired token."))
			return
		}
		next(writer, request, claims.UserId)
	}
}

func (api *stubApi) itemCollection(writer http.ResponseWriter, request *http.Request, userId string) {
	switch request.Method {
	case http.MethodGet:
		api.mu.Lock()
		owned := make([]common.Item, 0)
		for _, item := range api.items {
			if item.UserId == userId {
				owned = append(owned, *item)
			}
		}
		api.mu.Unlock()
		reply(writer, http.StatusOK, owned)
	case http.MethodPost:
		var body common.NewItem
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			reply(writer, http.StatusBadRequest, message("Invalid item."))
			return
		}
		item := &common.Item{
			Id:                uuid.NewV4().String(),
			Name:              body.Name,
			Description:       body.Description,
			PurchasePrice:     body.PurchasePrice,
			SellingPrice:      body.SellingPrice,
			Quantity:          body.Quantity,
			LowStockThreshold: body.LowStockThreshold,
			UserId:            userId,
		}
		api.mu.Lock()
		api.items[item.Id] = item
		api.mu.Unlock()
		reply(writer, http.StatusCreated, item)
	default:
		reply(writer, http.StatusMethodNotAllowed, message("Method not allowed."))
	}
}

func (api *stubApi) deleteItem(writer http.ResponseWriter, request *http.Request, userId string) {
	if request.Method != http.MethodDelete {
		reply(writer, http.StatusMethodNotAllowed, message("Method not allowed."))
		return
	}
	id := strings.TrimPrefix(request.URL.Path, "/api/items/")

	api.mu.Lock()
	defer api.mu.Unlock()
	item, found := api.items[id]
	if !found || item.UserId != userId {
		reply(writer, http.StatusNotFound, message("Item not found."))
		return
	}
	delete(api.items, id)
	reply(writer, http.StatusOK, message("Item deleted."))
}

func (api *stubApi) saleCollection(writer http.ResponseWriter, request *http.Request, userId string) {
	switch request.Method {
	case http.MethodGet:
		api.mu.Lock()
		owned := make([]common.Sale, 0)
		for _, recorded := range api.sales {
			if recorded.userId == userId {
				owned = append(owned, recorded.sale)
			}
		}
		api.mu.Unlock()
		reply(writer, http.StatusOK, owned)
	case http.MethodPost:
		var body common.NewSale
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			reply(writer, http.StatusBadRequest, message("Invalid sale."))
			return
		}
		api.mu.Lock()
		defer api.mu.Unlock()
		item, found := api.items[body.ItemId]
		if !found || item.UserId != userId {
			reply(writer, http.StatusNotFound, message("Item not found."))
			return
		}
		if item.Quantity < body.Quantity {
			reply(writer, http.StatusBadRequest, message("Insufficient stock."))
			return
		}
		item.Quantity -= body.Quantity
		sale := common.Sale{
			Id:           uuid.NewV4().String(),
			ItemId:       item.Id,
			ItemName:     item.Name,
			Quantity:     body.Quantity,
			PricePerItem: item.SellingPrice,
			TotalPrice:   item.SellingPrice * float64(body.Quantity),
			Date:         time.Now().UTC().Format(time.RFC3339),
		}
		api.sales = append(api.sales, ownedSale{userId: userId, sale: sale})
		reply(writer, http.StatusCreated, sale)
	default:
		reply(writer, http.StatusMethodNotAllowed, message("Method not allowed."))
	}
}
