package addresslookup

type Address struct {
	Postcode  string `json:"postcode"`
	Line1     string `json:"line1"`
	City      string `json:"city"`
	County    string `json:"county"`
	Country   string `json:"country"`
	Formatted string `json:"formatted"`
}

type autocompleteResponse struct {
	Status int      `json:"status"`
	Result []string `json:"result"`
}

type postcodeResponse struct {
	Status int            `json:"status"`
	Result postcodeResult `json:"result"`
}

type postcodeResult struct {
	Postcode      string `json:"postcode"`
	Thoroughfare  string `json:"thoroughfare"`
	AdminDistrict string `json:"admin_district"`
	Parish        string `json:"parish"`
	AdminCounty   string `json:"admin_county"`
}

func (r postcodeResult) toAddress() Address {
	city := r.AdminDistrict
	if city == "" {
		city = r.Parish
	}
	return Address{
		Postcode:  r.Postcode,
		Line1:     r.Thoroughfare,
		City:      city,
		County:    r.AdminCounty,
		Country:   "United Kingdom",
		Formatted: r.Thoroughfare + ", " + city + ", " + r.Postcode,
	}
}
