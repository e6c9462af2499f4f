package clientcart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apiclient"
	"storefront/models"
)

type fakePlacer struct {
	got  *apiclient.OrderRequest
	err  error
	resp *models.Order
}

func (f *fakePlacer) PlaceOrder(_ context.Context, req apiclient.OrderRequest) (*models.Order, error) {
	f.got = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func product(name string, price float64) models.Product {
	return models.Product{ID: primitive.NewObjectID(), Name: name, Price: price}
}

var address = models.ShippingAddress{Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US", Phone: "555"}

func TestStoreMutations(t *testing.T) {
	var saves int
	store, err := Open(nil, func([]Item) error { saves++; return nil })
	require.NoError(t, err)

	lamp, chair := product("Lamp", 100), product("Chair", 250)
	require.NoError(t, store.Add(lamp))
	require.NoError(t, store.Add(lamp))
	require.NoError(t, store.Add(chair))

	assert.Len(t, store.Items(), 2)
	assert.Equal(t, 3, store.Count())
	assert.Equal(t, 450.0, store.Total())

	require.NoError(t, store.UpdateQuantity(lamp.ID.Hex(), 5))
	assert.Equal(t, 750.0, store.Total())

	require.NoError(t, store.UpdateQuantity(chair.ID.Hex(), 0))
	assert.Len(t, store.Items(), 1)

	require.NoError(t, store.Remove(lamp.ID.Hex()))
	assert.Empty(t, store.Items())
	assert.Equal(t, 0.0, store.Total())
	assert.Equal(t, 6, saves)
}

func TestStoreItemsIsACopy(t *testing.T) {
	store, err := Open(nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Add(product("Lamp", 10)))

	items := store.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, store.Count())
}

func TestOpenLoadError(t *testing.T) {
	_, err := Open(func() ([]Item, error) { return nil, errors.New("disk gone") }, nil)
	assert.ErrorContains(t, err, "disk gone")
}

func TestSaveErrorIsReported(t *testing.T) {
	store, err := Open(nil, func([]Item) error { return errors.New("read-only") })
	require.NoError(t, err)
	assert.ErrorContains(t, store.Add(product("Lamp", 10)), "read-only")
}

func TestCheckout(t *testing.T) {
	store, err := Open(nil, nil)
	require.NoError(t, err)
	lamp := product("Lamp", 1000)
	require.NoError(t, store.Add(lamp))
	require.NoError(t, store.Add(lamp))

	placer := &fakePlacer{resp: &models.Order{ID: primitive.NewObjectID()}}
	order, err := store.Checkout(context.Background(), placer, address, "card")
	require.NoError(t, err)
	assert.Equal(t, placer.resp, order)

	req := placer.got
	require.NotNil(t, req)
	require.Len(t, req.OrderItems, 1)
	assert.Equal(t, lamp.ID.Hex(), req.OrderItems[0].Product)
	assert.Equal(t, 2, req.OrderItems[0].Quantity)
	assert.Equal(t, 2000.0, req.ItemsPrice)
	assert.Equal(t, 200.0, req.TaxPrice)
	assert.Equal(t, 500.0, req.ShippingPrice)
	assert.Equal(t, 2700.0, req.TotalPrice)
	assert.Equal(t, "card", req.PaymentMethod)

	assert.Empty(t, store.Items())
}

func TestCheckoutKeepsCartOnFailure(t *testing.T) {
	store, err := Open(nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Add(product("Lamp", 10)))

	placer := &fakePlacer{err: errors.New("Insufficient stock for Lamp")}
	_, err = store.Checkout(context.Background(), placer, address, "card")
	assert.Error(t, err)
	assert.Equal(t, 1, store.Count())
}

func TestCheckoutValidation(t *testing.T) {
	store, err := Open(nil, nil)
	require.NoError(t, err)
	placer := &fakePlacer{}

	_, err = store.Checkout(context.Background(), placer, address, "card")
	assert.ErrorIs(t, err, ErrEmptyCart)

	require.NoError(t, store.Add(product("Lamp", 10)))
	incomplete := address
	incomplete.Phone = " "
	_, err = store.Checkout(context.Background(), placer, incomplete, "card")
	assert.ErrorIs(t, err, ErrIncompleteAddress)
	assert.Nil(t, placer.got)
}

func TestFileStorage(t *testing.T) {
	fileStore := FileStorage{Path: filepath.Join(t.TempDir(), "nested", "cart.json")}

	items, err := fileStore.Load()
	require.NoError(t, err)
	assert.Empty(t, items)

	store, err := Open(fileStore.Load, fileStore.Save)
	require.NoError(t, err)
	lamp := product("Lamp", 42.5)
	require.NoError(t, store.Add(lamp))
	require.NoError(t, store.Add(lamp))

	reopened, err := Open(fileStore.Load, fileStore.Save)
	require.NoError(t, err)
	assert.Equal(t, []Item{{ProductID: lamp.ID.Hex(), Name: "Lamp", Price: 42.5, Quantity: 2}}, reopened.Items())

	require.NoError(t, reopened.Clear())
	data, err := os.ReadFile(fileStore.Path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestFileStorageCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := FileStorage{Path: path}.Load()
	assert.Error(t, err)
}
