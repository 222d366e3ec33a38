package catalogv1

// Product is the external view of a catalog product.
// Price is the exact decimal rendered as a string, e.g. "10.50".
type Product struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

type GetProductRequest struct {
	Id string `json:"id"`
}

type GetProductResponse struct {
	Product *Product `json:"product"`
}

type ListProductsRequest struct{}

type ListProductsResponse struct {
	Products []*Product `json:"products"`
}

// SearchProductsRequest selects products with MinPrice < price < MaxPrice whose name
// or description contains Query. Prices are decimal strings.
type SearchProductsRequest struct {
	Query    string `json:"query"`
	MinPrice string `json:"min_price"`
	MaxPrice string `json:"max_price"`
}

type SearchProductsResponse struct {
	Products []*Product `json:"products"`
}
