package ledger

// Seed returns the default construction budget a new conversation starts from.
func Seed() Document {
	return Document{Sections: []Section{
		{Title: "Masonry", Items: []Item{
			MustItem("Wall construction", 45, "m²", 65),
			MustItem("Tiling", 25, "m²", 35),
		}},
		{Title: "Windows", Items: []Item{
			MustItem("Aluminium windows", 4, "ud", 280),
			MustItem("Double glazing", 4, "m²", 45),
		}},
		{Title: "Painting", Items: []Item{
			MustItem("Interior painting", 120, "m²", 12),
			MustItem("Exterior painting", 80, "m²", 15),
		}},
		{Title: "Plumbing", Items: []Item{
			MustItem("Pipe installation", 1, "Global", 850),
			MustItem("Taps and fittings", 3, "ud", 120),
		}},
		{Title: "Electrical", Items: []Item{
			MustItem("Electrical installation", 1, "Global", 1200),
			MustItem("Light points", 12, "ud", 45),
		}},
	}}
}
