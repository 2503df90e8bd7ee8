package redisx

import "time"

const (
	// order_status:{order_id} -> {"order_id":..,"status":"..","updated_at":".."}
	KeyOrderStatus = "order_status:%d"

	// cart:{cart_id} -> JSON array of {product_id, quantity}
	KeyCart = "cart:%s"

	// dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLCart        = 30 * 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
