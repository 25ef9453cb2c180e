package models

import (
	"strconv"
	"strings"
	"time"
)

// Payment 在线支付记录，一笔支付覆盖一次结算的全部订单
type Payment struct {
	ID        uint       `gorm:"primarykey" json:"id"`                             // 主键
	TxnRef    string     `gorm:"uniqueIndex;not null" json:"txn_ref"`              // 网关交易参考号
	UserID    uint       `gorm:"index;not null" json:"user_id"`                    // 用户ID
	Gateway   string     `gorm:"type:varchar(20);not null" json:"gateway"`         // 支付网关
	Amount    Money      `gorm:"type:decimal(20,2);not null" json:"amount"`        // 支付金额
	OrderIDs  string     `gorm:"type:text;not null" json:"order_ids"`              // 关联订单ID（逗号分隔）
	PayURL    string     `gorm:"type:text" json:"pay_url"`                         // 支付链接
	Status    string     `gorm:"type:varchar(20);index;not null" json:"status"`    // 支付状态
	GatewayTx string     `gorm:"index" json:"gateway_tx"`                          // 网关流水号
	PaidAt    *time.Time `json:"paid_at"`                                          // 支付时间
	CreatedAt time.Time  `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt time.Time  `gorm:"index" json:"updated_at"`                          // 更新时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}

// ParseOrderIDs 解析关联订单ID
func (p *Payment) ParseOrderIDs() []uint {
	if p == nil {
		return nil
	}
	parts := strings.Split(p.OrderIDs, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil || n == 0 {
			continue
		}
		ids = append(ids, uint(n))
	}
	return ids
}

// JoinOrderIDs 将订单ID拼接为逗号分隔字符串
func JoinOrderIDs(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ",")
}
