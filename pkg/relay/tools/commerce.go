package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/voxbridge-ai/voxbridge/pkg/relay"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/protocol"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/tools/adapters/catalog"
)

const (
	ToolProductsByCategory = "get_products_by_category"
	ToolProductSearch      = "search_products"
	ToolPlaceOrder         = "place_order"
)

// ProductsByCategoryExecutor lists catalog products in one category.
type ProductsByCategoryExecutor struct {
	catalog *catalog.Client
}

func NewProductsByCategoryExecutor(client *catalog.Client) *ProductsByCategoryExecutor {
	return &ProductsByCategoryExecutor{catalog: client}
}

func (e *ProductsByCategoryExecutor) Name() string { return ToolProductsByCategory }

func (e *ProductsByCategoryExecutor) Definition() protocol.ToolSchema {
	return protocol.ToolSchema{
		Type:        "function",
		Name:        ToolProductsByCategory,
		Description: "List the products available in a category.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"category": {"type": "string", "description": "Product category name"}
			},
			"required": ["category"]
		}`),
	}
}

func (e *ProductsByCategoryExecutor) Execute(ctx context.Context, args map[string]any) (string, error) {
	category, err := stringArg(args, "category")
	if err != nil {
		return "", err
	}
	if e.catalog == nil || !e.catalog.Configured() {
		return "", relay.NewNotFoundError("catalog service is not configured")
	}
	products, err := e.catalog.ProductsByCategory(ctx, category)
	if err != nil {
		return "", fmt.Errorf("list products: %w", err)
	}
	return encodeProducts(products)
}

// ProductSearchExecutor searches catalog products by category and price cap.
type ProductSearchExecutor struct {
	catalog *catalog.Client
}

func NewProductSearchExecutor(client *catalog.Client) *ProductSearchExecutor {
	return &ProductSearchExecutor{catalog: client}
}

func (e *ProductSearchExecutor) Name() string { return ToolProductSearch }

func (e *ProductSearchExecutor) Definition() protocol.ToolSchema {
	return protocol.ToolSchema{
		Type:        "function",
		Name:        ToolProductSearch,
		Description: "Search products in a category at or below a price.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"category": {"type": "string", "description": "Product category name"},
				"max_price": {"type": "number", "description": "Maximum price, inclusive"}
			},
			"required": ["category", "max_price"]
		}`),
	}
}

func (e *ProductSearchExecutor) Execute(ctx context.Context, args map[string]any) (string, error) {
	category, err := stringArg(args, "category")
	if err != nil {
		return "", err
	}
	maxPrice, err := numberArg(args, "max_price")
	if err != nil {
		return "", err
	}
	if e.catalog == nil || !e.catalog.Configured() {
		return "", relay.NewNotFoundError("catalog service is not configured")
	}
	products, err := e.catalog.SearchProducts(ctx, category, maxPrice)
	if err != nil {
		return "", fmt.Errorf("search products: %w", err)
	}
	return encodeProducts(products)
}

// PlaceOrderExecutor places a catalog order.
type PlaceOrderExecutor struct {
	catalog *catalog.Client
}

func NewPlaceOrderExecutor(client *catalog.Client) *PlaceOrderExecutor {
	return &PlaceOrderExecutor{catalog: client}
}

func (e *PlaceOrderExecutor) Name() string { return ToolPlaceOrder }

func (e *PlaceOrderExecutor) Definition() protocol.ToolSchema {
	return protocol.ToolSchema{
		Type:        "function",
		Name:        ToolPlaceOrder,
		Description: "Place an order for a quantity of a product.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"product_id": {"type": "string", "description": "Identifier of the product to order"},
				"quantity": {"type": "integer", "description": "Number of units to order"}
			},
			"required": ["product_id", "quantity"]
		}`),
	}
}

func (e *PlaceOrderExecutor) Execute(ctx context.Context, args map[string]any) (string, error) {
	productID, err := stringArg(args, "product_id")
	if err != nil {
		return "", err
	}
	quantity, err := intArg(args, "quantity")
	if err != nil {
		return "", err
	}
	if quantity <= 0 {
		return "", relay.NewInvalidArgumentError("quantity must be positive", "quantity")
	}
	if e.catalog == nil || !e.catalog.Configured() {
		return "", relay.NewNotFoundError("catalog service is not configured")
	}
	order, err := e.catalog.PlaceOrder(ctx, productID, quantity)
	if err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	encoded, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("encode order: %w", err)
	}
	return string(encoded), nil
}

func encodeProducts(products []catalog.Product) (string, error) {
	encoded, err := json.Marshal(map[string]any{"products": products})
	if err != nil {
		return "", fmt.Errorf("encode products: %w", err)
	}
	return string(encoded), nil
}
