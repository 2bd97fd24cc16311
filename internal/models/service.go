package models

// Service dịch vụ của garage, collection "services"
type Service struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image,omitempty"`
}

// ParseService chuyển document "services" thành Service
func ParseService(id string, data map[string]interface{}) Service {
	f := Fields(data)
	return Service{
		ID:          id,
		Name:        f.String("name"),
		Price:       f.Float("price"),
		Description: f.String("description"),
		ImageURL:    f.String("image"),
	}
}
