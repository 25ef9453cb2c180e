package admin

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"github.com/gin-gonic/gin"
)

const adminPaymentExportBatchSize = 500

// GetAdminPayments 获取支付记录列表
func (h *Handler) GetAdminPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter, err := buildAdminPaymentFilter(c, page, pageSize)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid query", err)
		return
	}

	payments, total, err := h.PaymentService.ListPaymentsAdmin(filter)
	if err != nil {
		respondServiceError(c, err, "payment fetch failed")
		return
	}
	response.SuccessWithPage(c, payments, page, pageSize, total)
}

// ExportAdminPayments 导出支付记录 CSV
func (h *Handler) ExportAdminPayments(c *gin.Context) {
	filter, err := buildAdminPaymentFilter(c, 1, adminPaymentExportBatchSize)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid query", err)
		return
	}

	payments, _, err := h.PaymentService.ListPaymentsAdmin(filter)
	if err != nil {
		respondServiceError(c, err, "payment fetch failed")
		return
	}

	filename := fmt.Sprintf("payments_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write([]string{
		"id",
		"txn_ref",
		"user_id",
		"gateway",
		"status",
		"amount",
		"order_ids",
		"gateway_tx",
		"created_at",
		"paid_at",
	}); err != nil {
		requestLog(c).Errorw("admin_payment_export_header_write_failed", "error", err)
		return
	}

	page := 1
	for {
		if len(payments) > 0 {
			if err := writeAdminPaymentCSVRows(writer, payments); err != nil {
				requestLog(c).Errorw("admin_payment_export_rows_write_failed", "page", page, "error", err)
				return
			}
			writer.Flush()
			if err := writer.Error(); err != nil {
				requestLog(c).Errorw("admin_payment_export_flush_failed", "page", page, "error", err)
				return
			}
		}
		if len(payments) < adminPaymentExportBatchSize {
			break
		}
		page++
		filter.Page = page
		payments, _, err = h.PaymentService.ListPaymentsAdmin(filter)
		if err != nil {
			requestLog(c).Errorw("admin_payment_export_batch_fetch_failed", "page", page, "error", err)
			return
		}
	}
}

func buildAdminPaymentFilter(c *gin.Context, page, pageSize int) (repository.PaymentListFilter, error) {
	userID, err := parseQueryUint(c, "user_id")
	if err != nil {
		return repository.PaymentListFilter{}, err
	}
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		return repository.PaymentListFilter{}, err
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		return repository.PaymentListFilter{}, err
	}
	return repository.PaymentListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		Gateway:     strings.TrimSpace(c.Query("gateway")),
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}, nil
}

func writeAdminPaymentCSVRows(writer *csv.Writer, payments []models.Payment) error {
	for _, payment := range payments {
		if err := writer.Write([]string{
			strconv.FormatUint(uint64(payment.ID), 10),
			payment.TxnRef,
			strconv.FormatUint(uint64(payment.UserID), 10),
			payment.Gateway,
			payment.Status,
			payment.Amount.String(),
			payment.OrderIDs,
			payment.GatewayTx,
			payment.CreatedAt.Format(time.RFC3339),
			formatTimeNullable(payment.PaidAt),
		}); err != nil {
			return err
		}
	}
	return nil
}
