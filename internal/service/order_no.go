package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// generateCheckoutNo 生成结算批次号，同时作为在线支付的交易参考号
func generateCheckoutNo(now time.Time) string {
	return fmt.Sprintf("BZ%s%s", now.Format("20060102150405"), randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}

// buildShopOrderNo 生成店铺订单号：批次号-序号
func buildShopOrderNo(checkoutNo string, seq int) string {
	if seq <= 0 {
		return checkoutNo
	}
	return fmt.Sprintf("%s-%02d", checkoutNo, seq)
}
