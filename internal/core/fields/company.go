package fields

import "github.com/JonMunkholm/csvbatch/internal/core"

func init() {
	registerCompany()
}

func registerCompany() {
	core.RegisterSchema(core.Schema{
		Category: core.CategoryCompany,
		Fields: []core.SystemField{
			{Key: "companyName", Label: "Company Name", Required: true},
			{Key: "industry", Label: "Industry"},
			{Key: "website", Label: "Website"},
			{Key: "employeeCount", Label: "Employee Count"},
			{Key: "annualRevenue", Label: "Annual Revenue"},
			{Key: "country", Label: "Country"},
			{Key: "state", Label: "State/Province"},
			{Key: "city", Label: "City"},
			{Key: "size", Label: "Size"},
			{Key: "revenue", Label: "Revenue"},
			{Key: "founded", Label: "Founded"},
		},
	})
}
