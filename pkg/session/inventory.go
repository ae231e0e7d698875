package session

import (
	"context"
	"errors"
	"github.com/Alcereo/inventory-gateway/pkg/client"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"net/http"
)

var ErrNotSignedIn = errors.New("not signed in")

type InventoryAPI interface {
	ListItems(ctx context.Context, credentials client.Credentials) (*client.Response, error)
	AddItem(ctx context.Context, credentials client.Credentials, item common.NewItem) (*client.Response, error)
	DeleteItem(ctx context.Context, credentials client.Credentials, id string) (*client.Response, error)
	ListSales(ctx context.Context, credentials client.Credentials) (*client.Response, error)
	RecordSale(ctx context.Context, credentials client.Credentials, sale common.NewSale) (*client.Response, error)
}

// Inventory performs inventory calls with the store's credentials and
// expires the session when the gateway answers 401.
type Inventory struct {
	store *Store
	api   InventoryAPI
}

func NewInventory(store *Store, api InventoryAPI) *Inventory {
	return &Inventory{store: store, api: api}
}

func (inventory *Inventory) Items(ctx context.Context) ([]common.Item, error) {
	var items []common.Item
	err := inventory.call("Failed to retrieve items.", &items, func(credentials client.Credentials) (*client.Response, error) {
		return inventory.api.ListItems(ctx, credentials)
	})
	return items, err
}

func (inventory *Inventory) AddItem(ctx context.Context, item common.NewItem) (*common.Item, error) {
	var created common.Item
	err := inventory.call("Failed to add item.", &created, func(credentials client.Credentials) (*client.Response, error) {
		return inventory.api.AddItem(ctx, credentials, item)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (inventory *Inventory) DeleteItem(ctx context.Context, id string) error {
	return inventory.call("Failed to delete item.", nil, func(credentials client.Credentials) (*client.Response, error) {
		return inventory.api.DeleteItem(ctx, credentials, id)
	})
}

func (inventory *Inventory) Sales(ctx context.Context) ([]common.Sale, error) {
	var sales []common.Sale
	err := inventory.call("Failed to retrieve sales.", &sales, func(credentials client.Credentials) (*client.Response, error) {
		return inventory.api.ListSales(ctx, credentials)
	})
	return sales, err
}

func (inventory *Inventory) Sell(ctx context.Context, sale common.NewSale) (*common.Sale, error) {
	var recorded common.Sale
	err := inventory.call("Failed to record sale.", &recorded, func(credentials client.Credentials) (*client.Response, error) {
		return inventory.api.RecordSale(ctx, credentials, sale)
	})
	if err != nil {
		return nil, err
	}
	return &recorded, nil
}

func (inventory *Inventory) call(
	fallback string,
	target interface{},
	perform func(credentials client.Credentials) (*client.Response, error),
) error {
	credentials, found := inventory.store.Credentials()
	if !found {
		return ErrNotSignedIn
	}
	response, err := perform(credentials)
	if err != nil {
		return err
	}
	if response.Status == http.StatusUnauthorized {
		inventory.store.Expire(SessionExpired)
	}
	if err := response.Err(fallback); err != nil {
		return err
	}
	if target == nil || response.Status == http.StatusNoContent {
		return nil
	}
	return response.Decode(target)
}
