package domain

// TemplateService is one catalog entry inside an industry template.
type TemplateService struct {
	Name            string
	Description     string
	DurationMinutes int
	PriceCents      int64
	Category        string
}

// IndustryTemplates are starter catalogs applied during onboarding.
var IndustryTemplates = map[string][]TemplateService{
	"salon": {
		{Name: "Haircut", Description: "Cut and style", DurationMinutes: 45, PriceCents: 4500, Category: "hair"},
		{Name: "Color", Description: "Full color treatment", DurationMinutes: 120, PriceCents: 12000, Category: "hair"},
		{Name: "Blowout", Description: "Wash and blowout", DurationMinutes: 30, PriceCents: 3500, Category: "hair"},
		{Name: "Manicure", Description: "Classic manicure", DurationMinutes: 30, PriceCents: 2500, Category: "nails"},
	},
	"barbershop": {
		{Name: "Men's Cut", Description: "Classic cut", DurationMinutes: 30, PriceCents: 3000, Category: "hair"},
		{Name: "Beard Trim", Description: "Shape and trim", DurationMinutes: 15, PriceCents: 1500, Category: "grooming"},
		{Name: "Hot Towel Shave", Description: "Straight razor shave", DurationMinutes: 30, PriceCents: 3500, Category: "grooming"},
	},
	"spa": {
		{Name: "Swedish Massage", Description: "60 minute relaxation massage", DurationMinutes: 60, PriceCents: 9000, Category: "massage"},
		{Name: "Deep Tissue Massage", Description: "60 minute deep tissue", DurationMinutes: 60, PriceCents: 11000, Category: "massage"},
		{Name: "Facial", Description: "Signature facial", DurationMinutes: 50, PriceCents: 8500, Category: "skin"},
	},
	"dental": {
		{Name: "Cleaning", Description: "Routine cleaning and exam", DurationMinutes: 60, PriceCents: 15000, Category: "hygiene"},
		{Name: "Consultation", Description: "New patient consultation", DurationMinutes: 30, PriceCents: 7500, Category: "exam"},
	},
	"auto": {
		{Name: "Oil Change", Description: "Standard oil change", DurationMinutes: 30, PriceCents: 5000, Category: "maintenance"},
		{Name: "Tire Rotation", Description: "Rotate and balance", DurationMinutes: 45, PriceCents: 4000, Category: "maintenance"},
		{Name: "Inspection", Description: "Multi-point inspection", DurationMinutes: 60, PriceCents: 8000, Category: "diagnostics"},
	},
}

// TemplateNames lists the available template identifiers.
func TemplateNames() []string {
	names := make([]string, 0, len(IndustryTemplates))
	for name := range IndustryTemplates {
		names = append(names, name)
	}
	return names
}
