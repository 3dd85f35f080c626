package models

// Field names used by the menu collections
const (
	FieldName           = "name"
	FieldDescription    = "description"
	FieldPrice          = "price"
	FieldType           = "type"
	FieldImageURL       = "image_url"
	FieldRating         = "rating"
	FieldCalories       = "calories"
	FieldProtein        = "protein"
	FieldCategory       = "categories"
	FieldMenu           = "menu"
	FieldCustomizations = "customizations"
)

// CustomizationType is the kind of option a customization adds to a menu item
type CustomizationType string

const (
	CustomizationTopping CustomizationType = "topping"
	CustomizationSide    CustomizationType = "side"
	CustomizationSize    CustomizationType = "size"
	CustomizationCrust   CustomizationType = "crust"
	CustomizationOther   CustomizationType = "other"
)

// Valid reports whether t is one of the known customization types
func (t CustomizationType) Valid() bool {
	switch t {
	case CustomizationTopping, CustomizationSide, CustomizationSize, CustomizationCrust, CustomizationOther:
		return true
	}
	return false
}

type Category struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (c Category) Fields() map[string]any {
	return map[string]any{
		FieldName:        c.Name,
		FieldDescription: c.Description,
	}
}

type Customization struct {
	Name  string            `json:"name"`
	Price float64           `json:"price"`
	Type  CustomizationType `json:"type"`
}

func (c Customization) Fields() map[string]any {
	return map[string]any{
		FieldName:  c.Name,
		FieldPrice: c.Price,
		FieldType:  string(c.Type),
	}
}

// MenuItem is a menu document with its category already resolved to an ID
type MenuItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	Calories    int     `json:"calories"`
	Protein     int     `json:"protein"`
	CategoryID  string  `json:"categories"`
}

func (m MenuItem) Fields() map[string]any {
	return map[string]any{
		FieldName:        m.Name,
		FieldDescription: m.Description,
		FieldImageURL:    m.ImageURL,
		FieldPrice:       m.Price,
		FieldRating:      m.Rating,
		FieldCalories:    m.Calories,
		FieldProtein:     m.Protein,
		FieldCategory:    m.CategoryID,
	}
}

// MenuCustomization links one menu item to one customization
type MenuCustomization struct {
	MenuID          string `json:"menu"`
	CustomizationID string `json:"customizations"`
}

func (l MenuCustomization) Fields() map[string]any {
	return map[string]any{
		FieldMenu:           l.MenuID,
		FieldCustomizations: l.CustomizationID,
	}
}

// IDMap resolves fixture names to backend-assigned document IDs
type IDMap map[string]string

// Lookup returns the ID recorded for name
func (m IDMap) Lookup(name string) (string, bool) {
	id, ok := m[name]
	return id, ok
}
