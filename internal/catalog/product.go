package catalog

import "slices"

// Comment is a user review attached to a product. Newest comments come first.
type Comment struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Content  string  `json:"content"`
	Rating   float64 `json:"rating"`
	Date     string  `json:"date"`
}

type Product struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Rating      float64   `json:"rating"`
	Image       string    `json:"image"`
	Images      []string  `json:"images"`
	Description string    `json:"description"`
	ArrivalDate string    `json:"arrivalDate"`
	Comments    []Comment `json:"comments"`
}

// MeanRating is the arithmetic mean of the comment ratings, 0 for none.
func MeanRating(comments []Comment) float64 {
	if len(comments) == 0 {
		return 0
	}
	var sum float64
	for _, c := range comments {
		sum += c.Rating
	}
	return sum / float64(len(comments))
}

func (p Product) clone() Product {
	c := p
	c.Images = slices.Clone(p.Images)
	c.Comments = slices.Clone(p.Comments)
	return c
}

// normalized replaces nil sequences with empty ones so they encode as [].
func (p Product) normalized() Product {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	return p
}

func cloneProducts(ps []Product) []Product {
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = p.clone()
	}
	return out
}
