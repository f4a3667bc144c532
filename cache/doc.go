// Package cache provides the read-through cache used in front of the
// relational stores.
//
// CacheService is backed by sturdyc (see NewCacheService). Keys come from a
// KeySerializer:
//
//	keys := cache.NewDefaultKeySerializer("products")
//	key := keys.SerializeKey("GetByCombo", 101)
//	product, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (*store.Product, error) {
//		return products.GetByCombo(ctx, 101)
//	})
//
// Writers invalidate whole method families with
// svc.DeleteByPrefix(ctx, cache.Prefix(keys, "GetByCombo")).
//
// Function values are not valid key arguments; pass plain filter structs.
package cache
