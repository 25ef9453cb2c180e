package service

import (
	"time"

	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/pricing"
	"github.com/bazaar-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CartLine 购物车行（按当前成交价计价）
type CartLine struct {
	ProductID      uint            `json:"product_id"`
	ShopID         uint            `json:"shop_id"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	RegularPrice   decimal.Decimal `json:"regular_price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// CartView 购物车视图
type CartView struct {
	Items    []CartLine      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart 获取用户购物车，now 为计价时刻
func (s *CartService) GetCart(userID uint, now time.Time) (*CartView, error) {
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	view := &CartView{Items: make([]CartLine, 0, len(items)), Subtotal: decimal.Zero}
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		line := pricing.NewLine(item.Product, item.Quantity, now)
		lines = append(lines, line)
		view.Items = append(view.Items, CartLine{
			ProductID:      item.ProductID,
			ShopID:         item.Product.ShopID,
			Name:           item.Product.Name,
			Quantity:       item.Quantity,
			RegularPrice:   item.Product.RegularPrice.Decimal,
			EffectivePrice: line.Price,
			LineTotal:      line.Total(),
		})
	}
	view.Subtotal = pricing.Subtotal(lines)
	return view, nil
}

// UpsertItem 设置购物车商品数量
func (s *CartService) UpsertItem(userID, productID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	product, err := s.productRepo.GetActiveByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if product.Quantity < quantity {
		return ErrProductNotAvailable
	}
	now := time.Now()
	return s.cartRepo.Upsert(&models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// RemoveItem 移除购物车商品
func (s *CartService) RemoveItem(userID, productID uint) error {
	return s.cartRepo.DeleteByUserAndProduct(userID, productID)
}
