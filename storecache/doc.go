// Package storecache adds read-through caching to the relational stores.
//
// Products wraps any ProductStore (normally *store.Products) and serves
// List, Get, GetByCombo and Stats through a cache.CacheService. Keys come
// from a cache.KeySerializer, by default namespace::method::args under the
// "products" namespace:
//
//	base := store.NewProducts(db)
//	svc, _ := cache.NewCacheService(cache.DefaultConfig())
//	products := storecache.NewProducts(base, svc, nil)
//
// Writes go straight to the base store. After a successful write every key
// under the namespace is dropped with DeleteByPrefix, since any write may
// change pages, counts and lookups alike. Failed writes leave the cache
// untouched. Base errors, store.ErrNotFound included, are returned
// unchanged and are not cached.
package storecache
