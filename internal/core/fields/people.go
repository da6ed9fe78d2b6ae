package fields

import "github.com/JonMunkholm/csvbatch/internal/core"

func init() {
	registerPeople()
}

func registerPeople() {
	core.RegisterSchema(core.Schema{
		Category: core.CategoryPeople,
		Fields: []core.SystemField{
			{Key: "firstName", Label: "First Name", Required: true},
			{Key: "lastName", Label: "Last Name", Required: true},
			{Key: "email", Label: "Email"},
			{Key: "phone", Label: "Phone"},
			{Key: "title", Label: "Title"},
			{Key: "company", Label: "Company"},
			{Key: "location", Label: "Location"},
			{Key: "industry", Label: "Industry"},
		},
	})
}
