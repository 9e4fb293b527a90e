package chat

// Seed provides the example exchange every new conversation starts with.
func Seed() Transcript {
	return Transcript{
		{
			Role: RoleUser,
			Text: "Bonjour, où est né Martin Luther King ?",
		},
		{
			Role:     RoleBot,
			Text:     "Martin Luther King est né à Atlanta, en Géorgie.",
			Location: &Location{Lat: 33.7490, Lon: -84.3880},
		},
	}
}
