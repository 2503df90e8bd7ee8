package orders

import "strconv"

const (
	TopicOrderCreated       = "storefront.order.created"
	TopicOrderStatusChanged = "storefront.order.status_changed"
)

// Partition key = order_id so every event of one order keeps its order.
func PartitionKey(orderID int64) []byte { return []byte(strconv.FormatInt(orderID, 10)) }
