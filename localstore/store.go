// Package localstore is the on-device key-value cache backing the
// offline-first app state. Values are opaque JSON blobs keyed by the
// same names the mobile client persists under.
package localstore

const (
	KeyUserToken      = "userToken"
	KeyUser           = "user"
	KeyCustomers      = "customers"
	KeyProducts       = "products"
	KeySalesHistory   = "salesHistory"
	KeyReturnsHistory = "returnsHistory"
	KeyNotifications  = "notifications_v1"
)

type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
