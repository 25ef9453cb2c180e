package shipping

import (
	"strings"

	"github.com/bazaar-next/internal/constants"
)

// MapExternalStatus 将承运商状态映射为订单状态，无对应状态时 ok 为 false
func MapExternalStatus(external string) (status string, ok bool) {
	switch strings.ToLower(strings.TrimSpace(external)) {
	case "delivered":
		return constants.OrderStatusDelivered, true
	case "cancel", "returned":
		return constants.OrderStatusCancelled, true
	}
	return "", false
}
