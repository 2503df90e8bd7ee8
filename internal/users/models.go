package users

type Account struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type Address struct {
	StreetAddress *string `json:"street_address"`
	AddressLine2  *string `json:"address_line_2"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	PostalCode    *string `json:"postal_code"`
	Country       *string `json:"country"`
	PhoneNumber   *string `json:"phone_number"`
}

type Profile struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	Address
}

type Registration struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	IsAdmin  *bool  `json:"is_admin" validate:"required"`
}

// Credentials is what Login checks against. Hash never leaves the package.
type Credentials struct {
	Account
	Hash string
}

// UserPatch lists the only user fields a client may change.
type UserPatch struct {
	Name          *string `json:"name"`
	StreetAddress *string `json:"street_address"`
	AddressLine2  *string `json:"address_line_2"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	PostalCode    *string `json:"postal_code"`
	Country       *string `json:"country"`
	PhoneNumber   *string `json:"phone_number"`
}
